package repository

import (
	"context"

	"github.com/helpdeskhq/helpdesk/internal/domain"
	"github.com/helpdeskhq/helpdesk/internal/persistence"
)

// TicketRepository encapsulates ticket persistence. Every lookup and mutation is
// scoped to the owning user.
type TicketRepository interface {
	ListByUser(ctx context.Context, userID string) []domain.Ticket
	GetForUser(ctx context.Context, userID, id string) (*domain.Ticket, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	UpdateForUser(ctx context.Context, userID, id string, apply func(*domain.Ticket)) (*domain.Ticket, error)
	DeleteForUser(ctx context.Context, userID, id string) error
}

type ticketRepository struct {
	store persistence.RecordStore[domain.Ticket]
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(store persistence.RecordStore[domain.Ticket]) TicketRepository {
	return &ticketRepository{store: store}
}

// ListByUser keeps storage order.
func (r *ticketRepository) ListByUser(ctx context.Context, userID string) []domain.Ticket {
	all := r.store.LoadAll(ctx)
	owned := make([]domain.Ticket, 0, len(all))
	for _, ticket := range all {
		if ticket.UserID == userID {
			owned = append(owned, ticket)
		}
	}
	return owned
}

func (r *ticketRepository) GetForUser(ctx context.Context, userID, id string) (*domain.Ticket, error) {
	for _, ticket := range r.store.LoadAll(ctx) {
		if owns(ticket, userID, id) {
			return &ticket, nil
		}
	}
	return nil, ErrNotFound
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.store.SaveAll(ctx, append(r.store.LoadAll(ctx), *ticket))
}

// UpdateForUser applies the mutation to the first matching ticket and rewrites the
// whole collection.
func (r *ticketRepository) UpdateForUser(ctx context.Context, userID, id string, apply func(*domain.Ticket)) (*domain.Ticket, error) {
	all := r.store.LoadAll(ctx)
	for i := range all {
		if !owns(all[i], userID, id) {
			continue
		}
		apply(&all[i])
		if err := r.store.SaveAll(ctx, all); err != nil {
			return nil, err
		}
		updated := all[i]
		return &updated, nil
	}
	return nil, ErrNotFound
}

// DeleteForUser removes every ticket matching id and owner.
func (r *ticketRepository) DeleteForUser(ctx context.Context, userID, id string) error {
	all := r.store.LoadAll(ctx)
	kept := make([]domain.Ticket, 0, len(all))
	for _, ticket := range all {
		if !owns(ticket, userID, id) {
			kept = append(kept, ticket)
		}
	}
	if len(kept) == len(all) {
		return ErrNotFound
	}
	return r.store.SaveAll(ctx, kept)
}

func owns(ticket domain.Ticket, userID, id string) bool {
	return ticket.ID == id && ticket.UserID == userID
}
