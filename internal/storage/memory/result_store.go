package memory

import (
	"context"
	"sync"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/storage"
)

// ResultStore is an in-memory implementation of storage.ResultStore.
type ResultStore struct {
	mu      sync.RWMutex
	results []*domain.Result // insertion order
	saves   int
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Load returns every stored result in insertion order.
func (s *ResultStore) Load(_ context.Context) ([]*domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Return copies to prevent external mutation
	return storage.CopyResults(s.results), nil
}

// Save replaces the stored ledger with results.
func (s *ResultStore) Save(_ context.Context, results []*domain.Result) error {
	if err := storage.ValidateResults(results); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = storage.CopyResults(results)
	s.saves++
	return nil
}

// Saves returns how many snapshots were written.
func (s *ResultStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Verify interface compliance at compile time.
var _ storage.ResultStore = (*ResultStore)(nil)
