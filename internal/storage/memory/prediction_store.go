package memory

import (
	"context"
	"sync"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/storage"
)

// PredictionStore is an in-memory implementation of storage.PredictionStore.
type PredictionStore struct {
	mu    sync.RWMutex
	snap  *domain.CatalogSnapshot
	saves int
}

// NewPredictionStore creates a new in-memory prediction store.
func NewPredictionStore() *PredictionStore {
	return &PredictionStore{snap: storage.CopySnapshot(nil)}
}

// Load returns the stored catalog.
func (s *PredictionStore) Load(_ context.Context) (*domain.CatalogSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return storage.CopySnapshot(s.snap), nil
}

// Save replaces the stored catalog with snap.
func (s *PredictionStore) Save(_ context.Context, snap *domain.CatalogSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}
	for key, p := range snap.Predictions {
		if p == nil || p.Key != key || p.PredictedNumber <= 0 {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = storage.CopySnapshot(snap)
	s.saves++
	return nil
}

// Saves returns how many snapshots were written.
func (s *PredictionStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Verify interface compliance at compile time.
var _ storage.PredictionStore = (*PredictionStore)(nil)
