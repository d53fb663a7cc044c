package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/observability"
	"github.com/helpdeskhq/helpdesk/internal/persistence"
)

// Globals are shared by every command.
type Globals struct {
	Debug   bool
	Version string
	Out     io.Writer

	// Stores overrides the configured backend when set.
	Stores *persistence.Stores
}

// openStores returns the injected stores or opens the configured backend. The
// returned func releases whatever was opened.
func openStores(ctx context.Context, globals *Globals) (*persistence.Stores, func(), error) {
	if globals.Stores != nil {
		return globals.Stores, func() {}, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	level := "warn"
	if globals.Debug {
		level = "debug"
	}
	logger, err := observability.NewLogger(config.LoggerConfig{Level: level})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	stores, err := persistence.OpenStores(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return stores, func() {
		stores.Close()
		_ = logger.Sync()
	}, nil
}

