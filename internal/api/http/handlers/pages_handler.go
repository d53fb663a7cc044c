package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdeskhq/helpdesk/internal/service"
)

// PagesHandler serves the landing page and the dashboard.
type PagesHandler struct {
	tickets *service.TicketService
}

// NewPagesHandler constructs handler.
func NewPagesHandler(ticketService *service.TicketService) *PagesHandler {
	return &PagesHandler{tickets: ticketService}
}

// Landing handles GET /.
func (h *PagesHandler) Landing(c *fiber.Ctx) error {
	return RenderPage(c, http.StatusOK, PageLanding, nil)
}

// Dashboard handles GET /dashboard.
func (h *PagesHandler) Dashboard(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	list, err := h.tickets.List(c.UserContext(), *principal)
	if err != nil {
		return err
	}
	return RenderPage(c, http.StatusOK, PageDashboard, fiber.Map{"stats": list.Stats})
}
