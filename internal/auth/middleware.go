package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/internal/domain"
	"github.com/helpdeskhq/helpdesk/pkg/util/errorutil"
)

const (
	sessionKey   = "auth_session"
	principalKey = "auth_principal"
)

// LoginPath is where unauthenticated browsers are sent.
const LoginPath = "/login"

// SessionMiddleware loads the browser session before the handler runs and saves
// it afterwards.
func SessionMiddleware(store *session.Store, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return errorutil.NewInternalError(err)
		}
		c.Locals(sessionKey, sess)

		err = c.Next()
		// Save releases sess back to fiber's pool.
		c.Locals(sessionKey, nil)
		if saveErr := sess.Save(); saveErr != nil {
			logger.Error("session save failed", zap.Error(saveErr))
		}
		return err
	}
}

// SessionFromContext returns the session loaded by SessionMiddleware.
func SessionFromContext(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(sessionKey).(*session.Session)
	return sess
}

// RequireSession redirects to the login page unless the guard accepts the session.
func RequireSession(guard *Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFromContext(c)
		if sess == nil {
			return c.Redirect(LoginPath)
		}
		info, err := guard.EnsureAuthenticated(sess)
		if err != nil {
			return c.Redirect(LoginPath)
		}
		c.Locals(principalKey, info)
		return c.Next()
	}
}

// BearerMiddleware authenticates JSON API calls from an Authorization header.
func BearerMiddleware(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return errorutil.NewUnauthenticated("missing authorization header")
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return errorutil.NewUnauthenticated("invalid authorization header")
		}

		claims, err := tokens.ParseToken(strings.TrimSpace(token))
		if err != nil {
			return errorutil.NewUnauthenticated("invalid token")
		}

		info := claims.SessionInfo()
		c.Locals(principalKey, &info)
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*domain.SessionInfo, bool) {
	info, ok := c.Locals(principalKey).(*domain.SessionInfo)
	return info, ok && info != nil
}
