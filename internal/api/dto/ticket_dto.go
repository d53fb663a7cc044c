package dto

import (
	"github.com/helpdeskhq/helpdesk/internal/domain"
	"github.com/helpdeskhq/helpdesk/internal/service"
)

// TicketRequest is bound from the ticket forms or a JSON body. ID is only read
// from the HTML update and delete forms.
type TicketRequest struct {
	ID          string `json:"-" form:"id"`
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Status      string `json:"status" form:"status"`
	Priority    string `json:"priority" form:"priority"`
}

// Input converts the request for the ticket service.
func (r TicketRequest) Input() service.TicketInput {
	return service.TicketInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
	}
}

// Old returns the submitted values for redisplay.
func (r TicketRequest) Old() map[string]string {
	priority := r.Priority
	if priority == "" {
		priority = domain.DefaultPriority
	}
	return map[string]string{
		"title":       r.Title,
		"description": r.Description,
		"status":      r.Status,
		"priority":    priority,
	}
}

// TicketResponse is the JSON view of a ticket.
type TicketResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.TicketStatus `json:"status"`
	Priority    string              `json:"priority"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
}

// TicketListResponse is returned by GET /api/tickets.
type TicketListResponse struct {
	Tickets []TicketResponse   `json:"tickets"`
	Stats   domain.TicketStats `json:"stats"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewTicketListResponse maps a service listing.
func NewTicketListResponse(list *service.TicketList) TicketListResponse {
	items := make([]TicketResponse, 0, len(list.Tickets))
	for i := range list.Tickets {
		items = append(items, NewTicketResponse(&list.Tickets[i]))
	}
	return TicketListResponse{Tickets: items, Stats: list.Stats}
}
