// Package backend opens the stores selected by configuration.
package backend

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"baccarat-ledger/internal/config"
	"baccarat-ledger/internal/storage"
	chstore "baccarat-ledger/internal/storage/clickhouse"
	"baccarat-ledger/internal/storage/file"
	"baccarat-ledger/internal/storage/memory"
	"baccarat-ledger/internal/storage/migrations"
	pgstore "baccarat-ledger/internal/storage/postgres"
)

// Stores holds every store the service uses.
type Stores struct {
	Results     storage.ResultStore
	Predictions storage.PredictionStore
	Settings    storage.SettingsStore
	Archives    []storage.ResultArchive

	closers []func()
}

// Close releases connections opened by Open.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Open creates the stores for cfg.Storage. A ClickHouse archive is added
// whenever cfg.ClickhouseDSN is set. Settings live in the data directory
// unless the memory backend is selected.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*Stores, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Stores{}

	switch cfg.Storage {
	case config.StorageMemory:
		s.Results = memory.NewResultStore()
		s.Predictions = memory.NewPredictionStore()
		s.Settings = memory.NewSettingsStore()
		s.Archives = append(s.Archives, memory.NewResultArchive())

	case config.StorageFile:
		s.Results = file.NewResultStore(filepath.Join(cfg.DataDir, file.ResultsFile))
		s.Predictions = file.NewPredictionStore(filepath.Join(cfg.DataDir, file.PredictionsFile))
		s.Settings = file.NewSettingsStore(filepath.Join(cfg.DataDir, file.SettingsFile))

	case config.StoragePostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		s.Results = pgstore.NewResultStore(pool)
		s.Predictions = pgstore.NewPredictionStore(pool)
		s.Archives = append(s.Archives, pgstore.NewResultArchive(pool))
		s.Settings = file.NewSettingsStore(filepath.Join(cfg.DataDir, file.SettingsFile))
		logger.Info("postgres storage ready")

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse archive: %w", err)
		}
		s.closers = append(s.closers, func() { conn.Close() })
		s.Archives = append(s.Archives, chstore.NewResultArchive(conn))
		logger.Info("clickhouse archive ready")
	}

	return s, nil
}
