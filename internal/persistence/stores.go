package persistence

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/domain"
)

const (
	usersRecordSet   = "users"
	ticketsRecordSet = "tickets"
)

// Stores bundles the record stores the services need.
type Stores struct {
	Users    RecordStore[domain.User]
	Tickets  RecordStore[domain.Ticket]
	postgres *Postgres
}

// OpenStores builds the configured storage backend.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return &Stores{
			Users:    NewPostgresStore[domain.User](pg.PoolHandle(), usersRecordSet, logger),
			Tickets:  NewPostgresStore[domain.Ticket](pg.PoolHandle(), ticketsRecordSet, logger),
			postgres: pg,
		}, nil
	default:
		logger.Info("using file storage",
			zap.String("users", cfg.Storage.UsersFile),
			zap.String("tickets", cfg.Storage.TicketsFile))
		return &Stores{
			Users:   NewFileStore[domain.User](cfg.Storage.UsersFile, logger),
			Tickets: NewFileStore[domain.Ticket](cfg.Storage.TicketsFile, logger),
		}, nil
	}
}

// Ping checks every store that can report health.
func (s *Stores) Ping(ctx context.Context) error {
	var errs []error
	for _, store := range []any{s.Users, s.Tickets} {
		if p, ok := store.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close releases backend connections.
func (s *Stores) Close() {
	if s != nil {
		s.postgres.Close()
	}
}
