package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/internal/clock"
	"github.com/helpdeskhq/helpdesk/internal/domain"
	"github.com/helpdeskhq/helpdesk/internal/events"
	"github.com/helpdeskhq/helpdesk/internal/repository"
	"github.com/helpdeskhq/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates per-user ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Logger     *zap.Logger
}

// TicketInput is the submitted create or edit form.
type TicketInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"max=500"`
	Status      string `json:"status" validate:"required,oneof=open in_progress closed"`
	Priority    string `json:"priority"`
}

// TicketList is a user's tickets in storage order plus their summary.
type TicketList struct {
	Tickets []domain.Ticket
	Stats   domain.TicketStats
}

// NewTicketService builds the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	c := deps.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		clock:      c,
		logger:     logger,
	}
}

// List returns the caller's tickets and their stats.
func (s *TicketService) List(ctx context.Context, session domain.SessionInfo) (*TicketList, error) {
	tickets := s.tickets.ListByUser(ctx, session.UserID)
	return &TicketList{Tickets: tickets, Stats: Stats(tickets)}, nil
}

// Stats counts open and closed tickets. in_progress only contributes to Total.
func Stats(tickets []domain.Ticket) domain.TicketStats {
	stats := domain.TicketStats{Total: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusClosed:
			stats.Resolved++
		}
	}
	return stats
}

// Find returns one of the caller's tickets.
func (s *TicketService) Find(ctx context.Context, session domain.SessionInfo, id string) (*domain.Ticket, error) {
	if id == "" {
		return nil, errorutil.NewMissingID()
	}
	ticket, err := s.tickets.GetForUser(ctx, session.UserID, id)
	if err != nil {
		return nil, mapTicketError(err)
	}
	return ticket, nil
}

// Create validates the input and appends a new ticket owned by the caller.
func (s *TicketService) Create(ctx context.Context, session domain.SessionInfo, input TicketInput) (*domain.Ticket, error) {
	input = normalizeTicketInput(input)
	if err := validateInput(input, ticketMessages); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	stamp := now.Format(time.RFC3339)
	ticket := &domain.Ticket{
		ID:          newTicketID(now),
		UserID:      session.UserID,
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.TicketStatus(input.Status),
		Priority:    input.Priority,
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.logger.Error("failed to persist ticket", zap.String("user_id", session.UserID), zap.Error(err))
		return nil, mapTicketError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		UserID:   session.UserID,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Status:   ticket.Status,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// Update overwrites the mutable fields of one of the caller's tickets.
func (s *TicketService) Update(ctx context.Context, session domain.SessionInfo, id string, input TicketInput) (*domain.Ticket, error) {
	if id == "" {
		return nil, errorutil.NewMissingID()
	}
	input = normalizeTicketInput(input)
	if err := validateInput(input, ticketMessages); err != nil {
		return nil, err
	}

	var oldStatus domain.TicketStatus
	updatedAt := s.clock.Now().Format(time.RFC3339)
	ticket, err := s.tickets.UpdateForUser(ctx, session.UserID, id, func(t *domain.Ticket) {
		oldStatus = t.Status
		t.Title = input.Title
		t.Description = input.Description
		t.Status = domain.TicketStatus(input.Status)
		t.Priority = input.Priority
		t.UpdatedAt = updatedAt
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("failed to update ticket", zap.String("ticket_id", id), zap.Error(err))
		}
		return nil, mapTicketError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		UserID:   session.UserID,
		TicketID: ticket.ID,
		Payload: events.TicketUpdatedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Priority:  ticket.Priority,
		},
	})
	return ticket, nil
}

// Delete removes one of the caller's tickets.
func (s *TicketService) Delete(ctx context.Context, session domain.SessionInfo, id string) error {
	if id == "" {
		return errorutil.NewMissingID()
	}
	if err := s.tickets.DeleteForUser(ctx, session.UserID, id); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("failed to delete ticket", zap.String("ticket_id", id), zap.Error(err))
		}
		return mapTicketError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		UserID:   session.UserID,
		TicketID: id,
	})
	return nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, s.logger, s.clock, event)
}

func normalizeTicketInput(input TicketInput) TicketInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Status = strings.TrimSpace(input.Status)
	input.Priority = strings.TrimSpace(input.Priority)
	if input.Priority == "" {
		input.Priority = domain.DefaultPriority
	}
	return input
}

// newTicketID joins the unix time with a three digit random suffix. Two tickets
// created in the same second can collide.
func newTicketID(now time.Time) string {
	return fmt.Sprintf("%d%d", now.Unix(), 100+rand.IntN(900))
}

func mapTicketError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errorutil.NewNotFoundOrForbidden()
	}
	if errorutil.ToDomainError(err).Code == errorutil.CodeInternal {
		return errorutil.NewStorageError(err)
	}
	return err
}
