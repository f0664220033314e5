package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/storage"
)

// PredictionStore implements storage.PredictionStore using PostgreSQL.
// Catalog-level state lives in the single-row catalog_meta table.
type PredictionStore struct {
	pool *Pool
}

// NewPredictionStore creates a new PredictionStore.
func NewPredictionStore(pool *Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PredictionStore = (*PredictionStore)(nil)

// Load returns the stored catalog.
func (s *PredictionStore) Load(ctx context.Context) (*domain.CatalogSnapshot, error) {
	snap := &domain.CatalogSnapshot{Predictions: make(map[string]*domain.Prediction)}

	var last *int
	err := s.pool.QueryRow(ctx, `SELECT last_launched_number FROM catalog_meta WHERE id = 1`).Scan(&last)
	if err != nil && !isNotFoundError(err) {
		return nil, fmt.Errorf("load catalog meta: %w", err)
	}
	snap.LastLaunchedNumber = last

	query := `
		SELECT key, predicted_number, expected_winner, state, status, skipped_consecutive,
			display_chat_id, display_message_id, scheduled_at, imported_at, import_batch,
			launched_at, verified_at
		FROM predictions
		ORDER BY predicted_number ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		snap.Predictions[p.Key] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return snap, nil
}

// Save replaces the stored catalog with snap in one transaction.
func (s *PredictionStore) Save(ctx context.Context, snap *domain.CatalogSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM predictions`); err != nil {
		return fmt.Errorf("clear predictions: %w", err)
	}

	query := `
		INSERT INTO predictions (
			key, predicted_number, expected_winner, state, status, skipped_consecutive,
			display_chat_id, display_message_id, scheduled_at, imported_at, import_batch,
			launched_at, verified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	for key, p := range snap.Predictions {
		if p == nil || p.Key != key {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			p.Key,
			p.PredictedNumber,
			string(p.ExpectedWinner),
			string(p.State),
			string(p.Status),
			p.SkippedConsecutive,
			p.Display.ChatID,
			p.Display.MessageID,
			nullTime(p.ScheduledAt),
			p.ImportedAt,
			p.ImportBatch,
			nullTime(p.LaunchedAt),
			nullTime(p.VerifiedAt),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			if isCheckViolation(err) {
				return storage.ErrInvalidInput
			}
			return fmt.Errorf("insert prediction: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO catalog_meta (id, last_launched_number) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET last_launched_number = EXCLUDED.last_launched_number
	`, snap.LastLaunchedNumber)
	if err != nil {
		return fmt.Errorf("save catalog meta: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// scanPrediction scans a row into a Prediction.
func scanPrediction(row pgx.Row) (*domain.Prediction, error) {
	var (
		p                             domain.Prediction
		winner, state, status         string
		scheduled, launched, verified *time.Time
	)

	err := row.Scan(
		&p.Key,
		&p.PredictedNumber,
		&winner,
		&state,
		&status,
		&p.SkippedConsecutive,
		&p.Display.ChatID,
		&p.Display.MessageID,
		&scheduled,
		&p.ImportedAt,
		&p.ImportBatch,
		&launched,
		&verified,
	)
	if err != nil {
		return nil, err
	}

	p.ExpectedWinner = domain.Winner(winner)
	p.State = domain.PredictionState(state)
	p.Status = domain.VerifyStatus(status)
	p.ScheduledAt = timeOrZero(scheduled)
	p.LaunchedAt = timeOrZero(launched)
	p.VerifiedAt = timeOrZero(verified)
	return &p, nil
}
