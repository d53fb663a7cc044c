package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/helpdeskhq/helpdesk/internal/repository"
	"github.com/helpdeskhq/helpdesk/internal/service"
)

// TicketsCmd lists one user's tickets.
type TicketsCmd struct {
	UserID string `help:"Owner of the tickets" required:"" name:"user-id"`
}

func (t *TicketsCmd) Run(ctx context.Context, globals *Globals) error {
	stores, closeStores, err := openStores(ctx, globals)
	if err != nil {
		return err
	}
	defer closeStores()

	tickets := repository.NewTicketRepository(stores.Tickets).ListByUser(ctx, t.UserID)
	stats := service.Stats(tickets)

	w := tabwriter.NewWriter(globals.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tUPDATED\tTITLE")
	for _, ticket := range tickets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ticket.ID, ticket.Status, ticket.Priority, ticket.UpdatedAt, ticket.Title)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(globals.Out, "\nTotal: %d  Open: %d  Resolved: %d\n", stats.Total, stats.Open, stats.Resolved)
	return nil
}
