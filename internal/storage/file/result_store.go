package file

import (
	"context"
	"sync"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/storage"
)

// ResultStore implements storage.ResultStore as a YAML list.
type ResultStore struct {
	mu   sync.Mutex
	path string
}

// NewResultStore creates a ResultStore backed by path.
func NewResultStore(path string) *ResultStore {
	return &ResultStore{path: path}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Load returns every stored result in file order. A missing file is an empty ledger.
func (s *ResultStore) Load(_ context.Context) ([]*domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []resultRecord
	if _, err := readYAML(s.path, &records); err != nil {
		return nil, err
	}

	results := make([]*domain.Result, 0, len(records))
	for _, rec := range records {
		results = append(results, rec.toDomain())
	}
	return results, nil
}

// Save rewrites the file with results.
func (s *ResultStore) Save(_ context.Context, results []*domain.Result) error {
	if err := storage.ValidateResults(results); err != nil {
		return err
	}

	records := make([]resultRecord, 0, len(results))
	for _, r := range results {
		records = append(records, toResultRecord(r))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeYAML(s.path, records)
}
