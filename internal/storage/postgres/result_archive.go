package postgres

import (
	"context"
	"fmt"
	"time"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/storage"
)

// ResultArchive implements storage.ResultArchive using PostgreSQL.
type ResultArchive struct {
	pool *Pool
}

// NewResultArchive creates a new ResultArchive.
func NewResultArchive(pool *Pool) *ResultArchive {
	return &ResultArchive{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultArchive = (*ResultArchive)(nil)

// InsertBulk adds a batch of results atomically. Returns ErrDuplicateKey if batchID exists.
func (a *ResultArchive) InsertBulk(ctx context.Context, batchID string, results []*domain.Result) error {
	if batchID == "" {
		return storage.ErrInvalidInput
	}
	if err := storage.ValidateResults(results); err != nil {
		return err
	}

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO archive_batches (batch_id, result_count) VALUES ($1, $2)`,
		batchID, len(results))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert archive batch: %w", err)
	}

	query := `
		INSERT INTO result_archive (
			batch_id, game_number, winner, recorded_at, first_group, raw_excerpt
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, r := range results {
		_, err := tx.Exec(ctx, query,
			batchID,
			r.GameNumber,
			string(r.Winner),
			r.RecordedAt,
			r.FirstGroup,
			r.RawExcerpt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert archived result: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves results recorded within [start, end] (inclusive).
func (a *ResultArchive) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.Result, error) {
	query := `
		SELECT game_number, winner, recorded_at, first_group, raw_excerpt
		FROM result_archive
		WHERE recorded_at >= $1 AND recorded_at <= $2
		ORDER BY recorded_at ASC, game_number ASC
	`

	rows, err := a.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get archived results by time range: %w", err)
	}
	defer rows.Close()

	var results []*domain.Result
	for rows.Next() {
		var (
			r      domain.Result
			winner string
		)
		if err := rows.Scan(&r.GameNumber, &winner, &r.RecordedAt, &r.FirstGroup, &r.RawExcerpt); err != nil {
			return nil, fmt.Errorf("scan archived result: %w", err)
		}
		r.Winner = domain.Winner(winner)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived results: %w", err)
	}
	return results, nil
}
