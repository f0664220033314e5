package postgres

import (
	"context"
	"fmt"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Load returns every stored result in insertion order.
func (s *ResultStore) Load(ctx context.Context) ([]*domain.Result, error) {
	query := `
		SELECT game_number, winner, recorded_at, first_group, raw_excerpt
		FROM results
		ORDER BY position ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	defer rows.Close()

	var results []*domain.Result
	for rows.Next() {
		var (
			r      domain.Result
			winner string
		)
		if err := rows.Scan(&r.GameNumber, &winner, &r.RecordedAt, &r.FirstGroup, &r.RawExcerpt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Winner = domain.Winner(winner)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// Save replaces the stored ledger with results in one transaction.
func (s *ResultStore) Save(ctx context.Context, results []*domain.Result) error {
	if err := storage.ValidateResults(results); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM results`); err != nil {
		return fmt.Errorf("clear results: %w", err)
	}

	query := `
		INSERT INTO results (
			game_number, position, winner, recorded_at, first_group, raw_excerpt
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	for i, r := range results {
		_, err := tx.Exec(ctx, query,
			r.GameNumber,
			i,
			string(r.Winner),
			r.RecordedAt,
			r.FirstGroup,
			r.RawExcerpt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			if isCheckViolation(err) {
				return storage.ErrInvalidInput
			}
			return fmt.Errorf("insert result: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
