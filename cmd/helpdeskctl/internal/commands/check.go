package commands

import (
	"context"
	"fmt"
)

// CheckCmd verifies both stores are reachable and readable.
type CheckCmd struct{}

func (c *CheckCmd) Run(ctx context.Context, globals *Globals) error {
	stores, closeStores, err := openStores(ctx, globals)
	if err != nil {
		return err
	}
	defer closeStores()

	if err := stores.Ping(ctx); err != nil {
		return fmt.Errorf("storage unhealthy: %w", err)
	}

	users := stores.Users.LoadAll(ctx)
	tickets := stores.Tickets.LoadAll(ctx)

	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[u.ID] = true
	}
	orphaned := 0
	for _, t := range tickets {
		if !known[t.UserID] {
			orphaned++
		}
	}

	fmt.Fprintf(globals.Out, "users: %d\ntickets: %d\norphaned tickets: %d\n", len(users), len(tickets), orphaned)
	return nil
}
