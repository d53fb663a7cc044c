package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/pkg/util/errorutil"
)

// PostgresStore keeps a collection as one JSONB document in the record_sets
// table, keyed by name. It has the same whole-collection semantics as FileStore.
type PostgresStore[T any] struct {
	pool   *pgxpool.Pool
	name   string
	logger *zap.Logger
	once   sync.Once
}

// NewPostgresStore returns a store for the record set called name.
func NewPostgresStore[T any](pool *pgxpool.Pool, name string, logger *zap.Logger) *PostgresStore[T] {
	return &PostgresStore[T]{pool: pool, name: name, logger: logger.With(zap.String("record_set", name))}
}

func (s *PostgresStore[T]) ensure(ctx context.Context) {
	s.once.Do(func() {
		const query = `INSERT INTO record_sets (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
		if _, err := s.pool.Exec(ctx, query, s.name); err != nil {
			s.logger.Warn("unable to initialize record set", zap.Error(err))
		}
	})
}

// LoadAll implements RecordStore.
func (s *PostgresStore[T]) LoadAll(ctx context.Context) []T {
	s.ensure(ctx)

	const query = `SELECT records FROM record_sets WHERE name=$1`
	var body []byte
	if err := s.pool.QueryRow(ctx, query, s.name).Scan(&body); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("unable to load record set", zap.Error(err))
		}
		return []T{}
	}
	return decodeRecords[T](body, s.logger)
}

// SaveAll implements RecordStore.
func (s *PostgresStore[T]) SaveAll(ctx context.Context, records []T) error {
	data, err := encodeRecords(records)
	if err != nil {
		return errorutil.NewStorageError(fmt.Errorf("encode %s: %w", s.name, err))
	}

	const query = `
        INSERT INTO record_sets (name, records, updated_at)
        VALUES ($1, $2::jsonb, NOW())
        ON CONFLICT (name) DO UPDATE SET records = EXCLUDED.records, updated_at = NOW()`

	if _, err := s.pool.Exec(ctx, query, s.name, string(data)); err != nil {
		return errorutil.NewStorageError(fmt.Errorf("save %s: %w", s.name, err))
	}
	return nil
}

// Ping verifies database connectivity.
func (s *PostgresStore[T]) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
