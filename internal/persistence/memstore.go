package persistence

import (
	"context"
	"sync"

	"github.com/helpdeskhq/helpdesk/pkg/util/errorutil"
)

// MemoryStore is an in-process RecordStore used by tests and local tooling.
type MemoryStore[T any] struct {
	mu      sync.Mutex
	records []T
	saveErr error
	saves   int
}

// NewMemoryStore returns a store seeded with records.
func NewMemoryStore[T any](records ...T) *MemoryStore[T] {
	return &MemoryStore[T]{records: append([]T{}, records...)}
}

// LoadAll implements RecordStore.
func (s *MemoryStore[T]) LoadAll(_ context.Context) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T{}, s.records...)
}

// SaveAll implements RecordStore.
func (s *MemoryStore[T]) SaveAll(_ context.Context, records []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return errorutil.NewStorageError(s.saveErr)
	}
	s.records = append([]T{}, records...)
	s.saves++
	return nil
}

// FailSaves makes every subsequent SaveAll fail with err. Pass nil to recover.
func (s *MemoryStore[T]) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves returns how many SaveAll calls succeeded.
func (s *MemoryStore[T]) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
