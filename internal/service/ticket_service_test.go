package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helpdeskhq/helpdesk/internal/clock"
	"github.com/helpdeskhq/helpdesk/internal/domain"
	"github.com/helpdeskhq/helpdesk/internal/events"
	"github.com/helpdeskhq/helpdesk/internal/persistence"
	"github.com/helpdeskhq/helpdesk/internal/repository"
	"github.com/helpdeskhq/helpdesk/pkg/util/errorutil"
)

var (
	alice = domain.SessionInfo{UserID: "u-alice", Name: "Alice", Email: "alice@x.com"}
	bob   = domain.SessionInfo{UserID: "u-bob", Name: "Bob", Email: "bob@x.com"}
)

type ticketFixture struct {
	svc       *TicketService
	store     *persistence.MemoryStore[domain.Ticket]
	clock     *clock.FakeClock
	published []events.EventType
}

func newTicketFixture(t *testing.T, seed ...domain.Ticket) *ticketFixture {
	t.Helper()
	f := &ticketFixture{
		store: persistence.NewMemoryStore(seed...),
		clock: clock.Fake(testNow),
	}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{events.EventTicketCreated, events.EventTicketUpdated, events.EventTicketDeleted} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.published = append(f.published, e.Type)
			return nil
		})
	}
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo: repository.NewTicketRepository(f.store),
		Dispatcher: dispatcher,
		Clock:      f.clock,
	})
	return f
}

func validInput() TicketInput {
	return TicketInput{Title: "Printer jam", Description: "Tray 2", Status: "open"}
}

func TestTicketService_CreateAndList(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, alice, validInput())
	require.NoError(t, err)
	require.Equal(t, alice.UserID, created.UserID)
	require.Equal(t, domain.DefaultPriority, created.Priority)
	require.Equal(t, "2024-03-01T09:30:00Z", created.CreatedAt)
	require.Equal(t, created.CreatedAt, created.UpdatedAt)
	require.True(t, strings.HasPrefix(created.ID, "1709285400"))
	require.Len(t, created.ID, len("1709285400")+3)

	mine, err := f.svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine.Tickets, 1)
	require.Equal(t, created.ID, mine.Tickets[0].ID)

	theirs, err := f.svc.List(ctx, bob)
	require.NoError(t, err)
	require.Empty(t, theirs.Tickets)
	require.Equal(t, domain.TicketStats{}, theirs.Stats)

	require.Equal(t, []events.EventType{events.EventTicketCreated}, f.published)
}

func TestTicketService_Stats(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, alice, validInput())
	require.NoError(t, err)
	closed := validInput()
	closed.Status = "closed"
	_, err = f.svc.Create(ctx, alice, closed)
	require.NoError(t, err)

	list, err := f.svc.List(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStats{Total: 2, Open: 1, Resolved: 1}, list.Stats)

	list.Tickets = append(list.Tickets, domain.Ticket{Status: domain.TicketStatusInProgress})
	require.Equal(t, domain.TicketStats{Total: 3, Open: 1, Resolved: 1}, Stats(list.Tickets))
}

func TestTicketService_ListKeepsStorageOrder(t *testing.T) {
	f := newTicketFixture(t,
		domain.Ticket{ID: "3", UserID: alice.UserID, Status: domain.TicketStatusOpen},
		domain.Ticket{ID: "1", UserID: bob.UserID, Status: domain.TicketStatusOpen},
		domain.Ticket{ID: "2", UserID: alice.UserID, Status: domain.TicketStatusClosed},
	)

	list, err := f.svc.List(context.Background(), alice)
	require.NoError(t, err)
	require.Equal(t, "3", list.Tickets[0].ID)
	require.Equal(t, "2", list.Tickets[1].ID)
}

func TestTicketService_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		input  TicketInput
		fields map[string]string
	}{
		{
			name:   "invalid status",
			input:  TicketInput{Title: "x", Status: "invalid"},
			fields: map[string]string{"status": "Status must be one of: open, in_progress, closed."},
		},
		{
			name:  "everything wrong at once",
			input: TicketInput{Description: strings.Repeat("d", 501)},
			fields: map[string]string{
				"title":       "Title is required.",
				"status":      "Status must be one of: open, in_progress, closed.",
				"description": "Description must be less than 500 characters.",
			},
		},
		{
			name:   "blank title",
			input:  TicketInput{Title: "   ", Status: "closed"},
			fields: map[string]string{"title": "Title is required."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTicketFixture(t)
			_, err := f.svc.Create(context.Background(), alice, tt.input)
			require.True(t, errorutil.HasCode(err, errorutil.CodeValidationFailed))
			require.Equal(t, tt.fields, errorutil.FieldErrors(err))
			require.Zero(t, f.store.Saves())
			require.Empty(t, f.published)
		})
	}
}

func TestTicketService_DescriptionLimitCountsCharacters(t *testing.T) {
	f := newTicketFixture(t)
	input := validInput()
	input.Description = strings.Repeat("é", domain.MaxDescriptionLength)

	_, err := f.svc.Create(context.Background(), alice, input)
	require.NoError(t, err)
}

func TestTicketService_Update(t *testing.T) {
	f := newTicketFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, alice, validInput())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	updated, err := f.svc.Update(ctx, alice, created.ID, TicketInput{
		Title: "Printer fixed", Status: "closed", Priority: "high",
	})
	require.NoError(t, err)
	require.Equal(t, "Printer fixed", updated.Title)
	require.Equal(t, "", updated.Description)
	require.Equal(t, domain.TicketStatusClosed, updated.Status)
	require.Equal(t, "high", updated.Priority)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.Equal(t, "2024-03-01T10:30:00Z", updated.UpdatedAt)

	stored := f.store.LoadAll(ctx)
	require.Equal(t, *updated, stored[0])
	require.Equal(t, []events.EventType{events.EventTicketCreated, events.EventTicketUpdated}, f.published)
}

func TestTicketService_UpdateErrors(t *testing.T) {
	owned := domain.Ticket{ID: "t1", UserID: alice.UserID, Title: "mine", Status: domain.TicketStatusOpen}
	ctx := context.Background()

	t.Run("missing id wins over validation", func(t *testing.T) {
		f := newTicketFixture(t, owned)
		_, err := f.svc.Update(ctx, alice, "", TicketInput{})
		require.True(t, errorutil.HasCode(err, errorutil.CodeMissingID))
	})

	t.Run("unknown id leaves store unchanged", func(t *testing.T) {
		f := newTicketFixture(t, owned)
		_, err := f.svc.Update(ctx, alice, "nope", validInput())
		require.True(t, errorutil.HasCode(err, errorutil.CodeNotFoundOrForbidden))
		require.Equal(t, []domain.Ticket{owned}, f.store.LoadAll(ctx))
		require.Zero(t, f.store.Saves())
	})

	t.Run("other user's ticket", func(t *testing.T) {
		f := newTicketFixture(t, owned)
		_, err := f.svc.Update(ctx, bob, "t1", validInput())
		require.True(t, errorutil.HasCode(err, errorutil.CodeNotFoundOrForbidden))
		require.Equal(t, []domain.Ticket{owned}, f.store.LoadAll(ctx))
	})

	t.Run("validation", func(t *testing.T) {
		f := newTicketFixture(t, owned)
		_, err := f.svc.Update(ctx, alice, "t1", TicketInput{Title: "x", Status: "done"})
		require.True(t, errorutil.HasCode(err, errorutil.CodeValidationFailed))
		require.Equal(t, []domain.Ticket{owned}, f.store.LoadAll(ctx))
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newTicketFixture(t, owned)
		f.store.FailSaves(errors.New("disk full"))
		_, err := f.svc.Update(ctx, alice, "t1", validInput())
		require.True(t, errorutil.HasCode(err, errorutil.CodeStorage))
		require.Empty(t, f.published)
	})
}

func TestTicketService_Delete(t *testing.T) {
	ctx := context.Background()
	seed := []domain.Ticket{
		{ID: "t1", UserID: alice.UserID, Status: domain.TicketStatusOpen},
		{ID: "t2", UserID: bob.UserID, Status: domain.TicketStatusOpen},
	}

	t.Run("owner deletes", func(t *testing.T) {
		f := newTicketFixture(t, seed...)
		require.NoError(t, f.svc.Delete(ctx, alice, "t1"))
		require.Equal(t, []domain.Ticket{seed[1]}, f.store.LoadAll(ctx))
		require.Equal(t, []events.EventType{events.EventTicketDeleted}, f.published)
	})

	t.Run("cross user", func(t *testing.T) {
		f := newTicketFixture(t, seed...)
		err := f.svc.Delete(ctx, alice, "t2")
		require.True(t, errorutil.HasCode(err, errorutil.CodeNotFoundOrForbidden))
		require.Len(t, f.store.LoadAll(ctx), 2)
	})

	t.Run("missing id", func(t *testing.T) {
		f := newTicketFixture(t, seed...)
		err := f.svc.Delete(ctx, alice, "")
		require.True(t, errorutil.HasCode(err, errorutil.CodeMissingID))
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newTicketFixture(t, seed...)
		f.store.FailSaves(errors.New("disk full"))
		err := f.svc.Delete(ctx, alice, "t1")
		require.True(t, errorutil.HasCode(err, errorutil.CodeStorage))
	})
}

func TestTicketService_Find(t *testing.T) {
	f := newTicketFixture(t, domain.Ticket{ID: "t1", UserID: alice.UserID, Title: "mine"})
	ctx := context.Background()

	got, err := f.svc.Find(ctx, alice, "t1")
	require.NoError(t, err)
	require.Equal(t, "mine", got.Title)

	_, err = f.svc.Find(ctx, bob, "t1")
	require.True(t, errorutil.HasCode(err, errorutil.CodeNotFoundOrForbidden))
}
