package file

import (
	"context"
	"sync"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/storage"
)

// SettingsStore implements storage.SettingsStore as a YAML document.
type SettingsStore struct {
	mu   sync.Mutex
	path string
}

// NewSettingsStore creates a SettingsStore backed by path.
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Compile-time interface check.
var _ storage.SettingsStore = (*SettingsStore)(nil)

// Load retrieves the settings. Returns ErrNotFound if the file does not exist.
func (s *SettingsStore) Load(_ context.Context) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec settingsRecord
	found, err := readYAML(s.path, &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}
	return &domain.Settings{
		StatChannel:     rec.StatChannel,
		DisplayChannel:  rec.DisplayChannel,
		TransferEnabled: rec.TransferEnabled,
	}, nil
}

// Save rewrites the file with settings.
func (s *SettingsStore) Save(_ context.Context, settings *domain.Settings) error {
	if settings == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeYAML(s.path, settingsRecord{
		StatChannel:     settings.StatChannel,
		DisplayChannel:  settings.DisplayChannel,
		TransferEnabled: settings.TransferEnabled,
	})
}
