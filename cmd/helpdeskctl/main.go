package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"

	"github.com/helpdeskhq/helpdesk/cmd/helpdeskctl/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Users   commands.UsersCmd   `cmd:"" help:"List registered users"`
		Tickets commands.TicketsCmd `cmd:"" help:"List a user's tickets with stats"`
		Check   commands.CheckCmd   `cmd:"" help:"Load both stores and report record counts"`
		Debug   bool                `help:"Enable debug logging."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("helpdeskctl"),
		kong.Description("Inspect helpdesk storage."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, Out: os.Stdout})
	cmd.FatalIfErrorf(err)
}
