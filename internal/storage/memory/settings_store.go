package memory

import (
	"context"
	"sync"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/storage"
)

// SettingsStore is an in-memory implementation of storage.SettingsStore.
type SettingsStore struct {
	mu       sync.RWMutex
	settings *domain.Settings
}

// NewSettingsStore creates a new in-memory settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{}
}

// Load retrieves the settings. Returns ErrNotFound if never saved.
func (s *SettingsStore) Load(_ context.Context) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, storage.ErrNotFound
	}
	c := *s.settings
	return &c, nil
}

// Save replaces the stored settings.
func (s *SettingsStore) Save(_ context.Context, settings *domain.Settings) error {
	if settings == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := *settings
	s.settings = &c
	return nil
}

// Verify interface compliance at compile time.
var _ storage.SettingsStore = (*SettingsStore)(nil)
