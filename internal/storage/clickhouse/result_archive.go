package clickhouse

import (
	"context"
	"fmt"
	"time"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/storage"
)

// ResultArchive implements storage.ResultArchive using ClickHouse.
// MergeTree does not enforce keys, so batch uniqueness is checked before insert.
type ResultArchive struct {
	conn *Conn
}

// NewResultArchive creates a new ResultArchive.
func NewResultArchive(conn *Conn) *ResultArchive {
	return &ResultArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.ResultArchive = (*ResultArchive)(nil)

// InsertBulk adds a batch of results. Returns ErrDuplicateKey if batchID exists.
func (a *ResultArchive) InsertBulk(ctx context.Context, batchID string, results []*domain.Result) error {
	if batchID == "" {
		return storage.ErrInvalidInput
	}
	if err := storage.ValidateResults(results); err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}

	exists, err := a.batchExists(ctx, batchID)
	if err != nil {
		return fmt.Errorf("check batch exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO result_archive (
			batch_id, game_number, winner, recorded_at, first_group, raw_excerpt
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range results {
		err = batch.Append(
			batchID, uint32(r.GameNumber), string(r.Winner),
			r.RecordedAt.UTC(), r.FirstGroup, r.RawExcerpt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves results recorded within [start, end] (inclusive).
func (a *ResultArchive) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.Result, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT game_number, winner, recorded_at, first_group, raw_excerpt
		FROM result_archive
		WHERE recorded_at >= ? AND recorded_at <= ?
		ORDER BY recorded_at ASC, game_number ASC
	`, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query archived results: %w", err)
	}
	defer rows.Close()

	var results []*domain.Result
	for rows.Next() {
		var (
			number uint32
			winner string
			r      domain.Result
		)
		if err := rows.Scan(&number, &winner, &r.RecordedAt, &r.FirstGroup, &r.RawExcerpt); err != nil {
			return nil, fmt.Errorf("scan archived result: %w", err)
		}
		r.GameNumber = int(number)
		r.Winner = domain.Winner(winner)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived results: %w", err)
	}
	return results, nil
}

func (a *ResultArchive) batchExists(ctx context.Context, batchID string) (bool, error) {
	var count uint64
	row := a.conn.QueryRow(ctx, `SELECT count() FROM result_archive WHERE batch_id = ?`, batchID)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
