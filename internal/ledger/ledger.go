// Package ledger keeps the deduplicated, consecutive-filtered log of
// confirmed results. Every mutation rewrites the full snapshot through a
// storage.ResultStore; a failed write leaves the in-memory state authoritative.
package ledger

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/extractor"
	"baccarat-ledger/internal/observability"
	"baccarat-ledger/internal/spreadsheet"
	"baccarat-ledger/internal/storage"
)

// Outcome is the result of recording one message.
type Outcome struct {
	Accepted bool
	Reason   extractor.Reason // set when not accepted
	Result   *domain.Result   // set when accepted
}

// ImportStats reports a bulk import of spreadsheet rows.
type ImportStats struct {
	Imported           int
	SkippedDuplicate   int
	SkippedConsecutive int
	SkippedInvalid     int // bad number or unrecognized winner
}

// Options configures a Ledger.
type Options struct {
	Store     storage.ResultStore  // required
	Extractor *extractor.Extractor // defaults to extractor.New with zero options
	Location  *time.Location       // zone of exported dates, defaults to UTC
	Logger    *zap.Logger
	Now       func() time.Time
}

// Ledger is the process-wide result log.
type Ledger struct {
	mu      sync.RWMutex
	store   storage.ResultStore
	ex      *extractor.Extractor
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
	results []*domain.Result
	index   numberIndex
}

// New creates an empty Ledger. Call Load to restore the persisted snapshot.
func New(opts Options) *Ledger {
	l := &Ledger{
		store:  opts.Store,
		ex:     opts.Extractor,
		loc:    opts.Location,
		logger: opts.Logger,
		now:    opts.Now,
		index:  numberIndex{},
	}
	if l.ex == nil {
		l.ex = extractor.New(extractor.Options{})
	}
	if l.loc == nil {
		l.loc = time.UTC
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// numberIndex is the set of recorded game numbers.
type numberIndex map[int]struct{}

func (ix numberIndex) Contains(n int) bool {
	_, ok := ix[n]
	return ok
}

// Load replaces the in-memory state with the stored snapshot.
// On error the ledger is left empty.
func (l *Ledger) Load(ctx context.Context) error {
	results, err := l.store.Load(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.results = nil
	l.index = numberIndex{}
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}
	for _, r := range results {
		if l.index.Contains(r.GameNumber) {
			l.logger.Warn("duplicate result in snapshot", zap.Int("game_number", r.GameNumber))
			continue
		}
		l.results = append(l.results, r)
		l.index[r.GameNumber] = struct{}{}
	}
	observability.UpdateLedgerSize(len(l.results))
	return nil
}

// Record runs the extractor on text and appends the result on acceptance.
// The returned error only reports a failed snapshot write; the outcome stands.
func (l *Ledger) Record(ctx context.Context, text string) (Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	result, reason := l.ex.Extract(text, l.index)
	if result == nil {
		observability.RecordRejection(reason.String())
		l.logger.Debug("message rejected", zap.String("reason", reason.String()))
		return Outcome{Reason: reason}, nil
	}

	if hint, ok := l.ex.WinnerHint(text); ok && hint != result.Winner {
		observability.RecordHintDisagreement()
		l.logger.Warn("winner hint disagrees with suit rule",
			zap.Int("game_number", result.GameNumber),
			zap.String("winner", result.Winner.String()),
			zap.String("hint", hint.String()),
		)
	}

	l.results = append(l.results, result)
	l.index[result.GameNumber] = struct{}{}
	observability.RecordResult(result.Winner.String(), len(l.results))
	l.logger.Info("result recorded",
		zap.Int("game_number", result.GameNumber),
		zap.String("winner", result.Winner.String()),
	)

	out := Outcome{Accepted: true, Result: copyResult(result)}
	return out, l.persist(ctx)
}

// ImportRows appends spreadsheet rows under the same uniqueness and
// consecutive rules as Record. A zero row time is replaced by the clock.
func (l *Ledger) ImportRows(ctx context.Context, rows []domain.Row) (ImportStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var stats ImportStats
	for _, row := range rows {
		winner, ok := domain.ParseWinner(row.WinnerText)
		if !ok || row.Number <= 0 {
			stats.SkippedInvalid++
			continue
		}
		if l.index.Contains(row.Number) {
			stats.SkippedDuplicate++
			continue
		}
		if l.index.Contains(row.Number - 1) {
			stats.SkippedConsecutive++
			continue
		}

		at := row.At
		if at.IsZero() {
			at = l.now().Truncate(time.Second)
		}
		l.results = append(l.results, &domain.Result{
			GameNumber: row.Number,
			Winner:     winner,
			RecordedAt: at,
		})
		l.index[row.Number] = struct{}{}
		stats.Imported++
	}

	observability.UpdateLedgerSize(len(l.results))
	if stats.Imported == 0 {
		return stats, nil
	}
	return stats, l.persist(ctx)
}

// Clear empties the ledger and persists immediately.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.results = nil
	l.index = numberIndex{}
	observability.UpdateLedgerSize(0)
	return l.persist(ctx)
}

// Stats aggregates the ledger.
func (l *Ledger) Stats() domain.ResultStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return domain.ComputeResultStats(l.results)
}

// Len returns the number of recorded results.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.results)
}

// Results returns copies of the recorded results in insertion order.
func (l *Ledger) Results() []*domain.Result {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return storage.CopyResults(l.results)
}

// Rows returns the ledger in the 3-column spreadsheet schema.
func (l *Ledger) Rows() []domain.Row {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return spreadsheet.ResultRows(l.results)
}

// Export writes the ledger as a styled workbook.
func (l *Ledger) Export(w io.Writer) error {
	return spreadsheet.WriteXLSX(w, l.Rows(), l.loc)
}

// ExportCSV writes the ledger as CSV with the same columns.
func (l *Ledger) ExportCSV(w io.Writer) error {
	return spreadsheet.WriteCSV(w, l.Rows(), l.loc)
}

// GameNumber extracts a game number with the recording tag rules,
// regardless of markers.
func (l *Ledger) GameNumber(text string) (int, bool) {
	return l.ex.GameNumber(text)
}

// persist writes the snapshot. Caller holds the write lock.
func (l *Ledger) persist(ctx context.Context) error {
	if err := l.store.Save(ctx, l.results); err != nil {
		observability.RecordPersistenceError("results")
		l.logger.Error("persist results failed", zap.Int("results", len(l.results)), zap.Error(err))
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

func copyResult(r *domain.Result) *domain.Result {
	c := *r
	return &c
}
