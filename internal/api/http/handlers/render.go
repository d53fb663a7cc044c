package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/internal/domain"
)

// CSRFContextKey is the Locals key the csrf middleware stores its token under.
const CSRFContextKey = "csrf"

// Page names understood by the views engine.
const (
	PageLanding   = "landing"
	PageLogin     = "login"
	PageSignup    = "signup"
	PageDashboard = "dashboard"
	PageTickets   = "tickets"
	PageNotFound  = "404"
	PageError     = "error"
)

// RenderPage renders name with the values every page layout expects: login
// state, the pending flash message and the csrf token. data overrides them.
func RenderPage(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	bind := fiber.Map{
		"isLoggedIn": false,
		"userName":   "",
		"flash":      nil,
		"csrf":       csrfToken(c),
		"errors":     map[string]string{},
		"old":        map[string]string{},
	}

	if sess := auth.SessionFromContext(c); sess != nil {
		if info, ok := auth.Current(sess); ok {
			bind["isLoggedIn"] = true
			bind["userName"] = info.Name
		}
		bind["flash"] = auth.ConsumeFlash(sess)
	}

	for k, v := range data {
		bind[k] = v
	}
	return c.Status(status).Render(name, bind)
}

func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals(CSRFContextKey).(string)
	return token
}

// flashRedirect leaves a one-shot message and redirects.
func flashRedirect(c *fiber.Ctx, kind domain.FlashType, message, location string) error {
	if sess := auth.SessionFromContext(c); sess != nil {
		auth.SetFlash(sess, kind, message)
	}
	return c.Redirect(location)
}
