package storage

import (
	"context"
	"time"

	"baccarat-ledger/internal/domain"
)

// ResultStore persists the result ledger as a full snapshot.
type ResultStore interface {
	// Load returns every stored result in insertion order. An empty store returns no error.
	Load(ctx context.Context) ([]*domain.Result, error)

	// Save replaces the stored ledger with results.
	Save(ctx context.Context, results []*domain.Result) error
}

// PredictionStore persists the prediction catalog as a full snapshot.
type PredictionStore interface {
	// Load returns the stored catalog. An empty store returns an empty snapshot.
	Load(ctx context.Context) (*domain.CatalogSnapshot, error)

	// Save replaces the stored catalog with snap.
	Save(ctx context.Context, snap *domain.CatalogSnapshot) error
}

// ResultArchive keeps results of past days after the ledger is reset.
type ResultArchive interface {
	// InsertBulk adds a batch of results. Returns ErrDuplicateKey if batchID exists.
	InsertBulk(ctx context.Context, batchID string, results []*domain.Result) error

	// GetByTimeRange retrieves results recorded within [start, end] (inclusive),
	// ordered by recorded_at ASC, game_number ASC.
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.Result, error)
}

// SettingsStore persists runtime channel settings.
type SettingsStore interface {
	// Load retrieves the settings. Returns ErrNotFound if never saved.
	Load(ctx context.Context) (*domain.Settings, error)

	// Save replaces the stored settings.
	Save(ctx context.Context, s *domain.Settings) error
}
