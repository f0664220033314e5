package file

import (
	"context"
	"sync"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/storage"
)

// PredictionStore implements storage.PredictionStore as a YAML mapping keyed by prediction key.
type PredictionStore struct {
	mu   sync.Mutex
	path string
}

// NewPredictionStore creates a PredictionStore backed by path.
func NewPredictionStore(path string) *PredictionStore {
	return &PredictionStore{path: path}
}

// Compile-time interface check.
var _ storage.PredictionStore = (*PredictionStore)(nil)

// Load returns the stored catalog. A missing file is an empty catalog.
func (s *PredictionStore) Load(_ context.Context) (*domain.CatalogSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc catalogDocument
	if _, err := readYAML(s.path, &doc); err != nil {
		return nil, err
	}

	snap := &domain.CatalogSnapshot{
		Predictions:        make(map[string]*domain.Prediction, len(doc.Predictions)),
		LastLaunchedNumber: doc.LastLaunchedNumber,
	}
	for key, rec := range doc.Predictions {
		snap.Predictions[key] = rec.toDomain(key)
	}
	return snap, nil
}

// Save rewrites the file with snap.
func (s *PredictionStore) Save(_ context.Context, snap *domain.CatalogSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	doc := catalogDocument{
		LastLaunchedNumber: snap.LastLaunchedNumber,
		Predictions:        make(map[string]predictionRecord, len(snap.Predictions)),
	}
	for key, p := range snap.Predictions {
		if p == nil || p.Key != key {
			return storage.ErrInvalidInput
		}
		doc.Predictions[key] = toPredictionRecord(p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeYAML(s.path, doc)
}
