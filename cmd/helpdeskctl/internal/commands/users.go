package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// UsersCmd lists registered users.
type UsersCmd struct{}

func (u *UsersCmd) Run(ctx context.Context, globals *Globals) error {
	stores, closeStores, err := openStores(ctx, globals)
	if err != nil {
		return err
	}
	defer closeStores()

	users := stores.Users.LoadAll(ctx)

	w := tabwriter.NewWriter(globals.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCREATED")
	for _, user := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", user.ID, user.Name, user.Email, user.CreatedAt)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(globals.Out, "\nTotal users: %d\n", len(users))
	return nil
}
