package handlers

import (
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdeskhq/helpdesk/internal/api/dto"
	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/internal/domain"
	"github.com/helpdeskhq/helpdesk/internal/service"
	apperrors "github.com/helpdeskhq/helpdesk/pkg/util/errorutil"
)

const ticketsPath = "/tickets"

const (
	msgTicketCreated = "Ticket created successfully!"
	msgTicketUpdated = "Ticket updated successfully!"
	msgTicketDeleted = "Ticket deleted successfully!"
	msgCreateFailed  = "Failed to save ticket. Please try again."
	msgUpdateFailed  = "Failed to update ticket. Please try again."
	msgDeleteFailed  = "Failed to delete ticket. Please try again."
)

// TicketsHandler manages the ticket pages and the ticket JSON API.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Index handles GET /tickets. The query opens the create modal (modal=create),
// the edit modal (modal=edit&id=) or the delete confirmation (delete=1&id=).
func (h *TicketsHandler) Index(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	list, err := h.service.List(ctx, *principal)
	if err != nil {
		return err
	}

	var stashed *domain.FormState
	if sess := auth.SessionFromContext(c); sess != nil {
		stashed = auth.ConsumeForm(sess)
	}

	data := fiber.Map{
		"tickets":           list.Tickets,
		"stats":             list.Stats,
		"statuses":          domain.TicketStatuses(),
		"priorities":        domain.TicketPriorities(),
		"showModal":         false,
		"editingTicket":     nil,
		"showDeleteConfirm": false,
		"ticketToDelete":    nil,
	}
	form := map[string]string{"priority": domain.DefaultPriority}
	id := c.Query("id")

	switch c.Query("modal") {
	case "create":
		data["showModal"] = true
	case "edit":
		if ticket, err := h.service.Find(ctx, *principal, id); err == nil {
			data["showModal"] = true
			data["editingTicket"] = ticket
			form = ticketFormValues(ticket)
		}
	}
	if c.Query("delete") != "" {
		if ticket, err := h.service.Find(ctx, *principal, id); err == nil {
			data["showDeleteConfirm"] = true
			data["ticketToDelete"] = ticket
		}
	}

	if stashed != nil {
		data["errors"] = stashed.Errors
		for k, v := range stashed.Old {
			form[k] = v
		}
	}
	data["form"] = form

	return RenderPage(c, http.StatusOK, PageTickets, data)
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}

	createModal := ticketsPath + "?modal=create"
	_, err = h.service.Create(c.UserContext(), *principal, req.Input())
	switch {
	case err == nil:
		return flashRedirect(c, domain.FlashSuccess, msgTicketCreated, ticketsPath)
	case apperrors.HasCode(err, apperrors.CodeValidationFailed):
		return stashRedirect(c, err, req, createModal)
	case apperrors.HasCode(err, apperrors.CodeStorage):
		return flashRedirect(c, domain.FlashError, msgCreateFailed, createModal)
	default:
		return err
	}
}

// Update handles POST /tickets/update.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}

	editModal := ticketsPath + "?modal=edit&id=" + url.QueryEscape(req.ID)
	_, err = h.service.Update(c.UserContext(), *principal, req.ID, req.Input())
	switch {
	case err == nil:
		return flashRedirect(c, domain.FlashSuccess, msgTicketUpdated, ticketsPath)
	case apperrors.HasCode(err, apperrors.CodeValidationFailed):
		return stashRedirect(c, err, req, editModal)
	case apperrors.HasCode(err, apperrors.CodeStorage):
		return flashRedirect(c, domain.FlashError, msgUpdateFailed, editModal)
	case apperrors.HasCode(err, apperrors.CodeMissingID), apperrors.HasCode(err, apperrors.CodeNotFoundOrForbidden):
		return flashRedirect(c, domain.FlashError, apperrors.ToDomainError(err).Message, ticketsPath)
	default:
		return err
	}
}

// Delete handles POST /tickets/delete.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid form", nil)
	}

	err = h.service.Delete(c.UserContext(), *principal, req.ID)
	switch {
	case err == nil:
		return flashRedirect(c, domain.FlashSuccess, msgTicketDeleted, ticketsPath)
	case apperrors.HasCode(err, apperrors.CodeStorage):
		return flashRedirect(c, domain.FlashError, msgDeleteFailed, ticketsPath)
	case apperrors.HasCode(err, apperrors.CodeMissingID), apperrors.HasCode(err, apperrors.CodeNotFoundOrForbidden):
		return flashRedirect(c, domain.FlashError, apperrors.ToDomainError(err).Message, ticketsPath)
	default:
		return err
	}
}

func stashRedirect(c *fiber.Ctx, err error, req dto.TicketRequest, location string) error {
	if sess := auth.SessionFromContext(c); sess != nil {
		auth.StashForm(sess, domain.FormState{
			Errors: apperrors.FieldErrors(err),
			Old:    req.Old(),
		})
	}
	return c.Redirect(location)
}

func ticketFormValues(t *domain.Ticket) map[string]string {
	return map[string]string{
		"title":       t.Title,
		"description": t.Description,
		"status":      string(t.Status),
		"priority":    t.Priority,
	}
}

// requirePrincipal returns the identity set by the session or bearer middleware.
func requirePrincipal(c *fiber.Ctx) (*domain.SessionInfo, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthenticated("authentication required")
	}
	return principal, nil
}
