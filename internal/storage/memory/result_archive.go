package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/storage"
)

// ResultArchive is an in-memory implementation of storage.ResultArchive.
type ResultArchive struct {
	mu      sync.RWMutex
	batches map[string][]*domain.Result // keyed by batch id
}

// NewResultArchive creates a new in-memory result archive.
func NewResultArchive() *ResultArchive {
	return &ResultArchive{
		batches: make(map[string][]*domain.Result),
	}
}

// InsertBulk adds a batch of results. Returns ErrDuplicateKey if batchID exists.
func (a *ResultArchive) InsertBulk(_ context.Context, batchID string, results []*domain.Result) error {
	if batchID == "" {
		return storage.ErrInvalidInput
	}
	if err := storage.ValidateResults(results); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.batches[batchID]; exists {
		return storage.ErrDuplicateKey
	}
	a.batches[batchID] = storage.CopyResults(results)
	return nil
}

// GetByTimeRange retrieves results recorded within [start, end] (inclusive).
func (a *ResultArchive) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.Result, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []*domain.Result
	for _, batch := range a.batches {
		for _, r := range batch {
			if r.RecordedAt.Before(start) || r.RecordedAt.After(end) {
				continue
			}
			c := *r
			result = append(result, &c)
		}
	}

	// Sort by recorded_at ASC, game_number ASC
	sort.Slice(result, func(i, j int) bool {
		if !result[i].RecordedAt.Equal(result[j].RecordedAt) {
			return result[i].RecordedAt.Before(result[j].RecordedAt)
		}
		return result[i].GameNumber < result[j].GameNumber
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.ResultArchive = (*ResultArchive)(nil)
