// Package catalog holds imported predictions and drives their lifecycle:
// PENDING, then LAUNCHED when a live game comes within tolerance, then
// VERIFIED once a verdict is recorded. The catalog is replaced wholesale on
// every import and rewritten through a storage.PredictionStore on every
// mutation.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/idhash"
	"baccarat-ledger/internal/observability"
	"baccarat-ledger/internal/storage"
)

// DefaultTolerance is the largest distance ahead of the live game at which
// a prediction is launched.
const DefaultTolerance = 4

var (
	// ErrNotPending is returned when launching a prediction that is not PENDING.
	ErrNotPending = errors.New("prediction is not pending")
	// ErrNotLaunched is returned when completing a prediction that is not LAUNCHED.
	ErrNotLaunched = errors.New("prediction is not launched")
)

// Options configures a Catalog.
type Options struct {
	Store      storage.PredictionStore // required
	Logger     *zap.Logger
	Now        func() time.Time
	NewBatchID func() string // defaults to a random UUID
}

// Catalog is the process-wide prediction store.
type Catalog struct {
	mu           sync.RWMutex
	store        storage.PredictionStore
	logger       *zap.Logger
	now          func() time.Time
	newBatchID   func() string
	predictions  map[string]*domain.Prediction
	lastLaunched *int
}

// New creates an empty Catalog. Call Load to restore the persisted snapshot.
func New(opts Options) *Catalog {
	c := &Catalog{
		store:       opts.Store,
		logger:      opts.Logger,
		now:         opts.Now,
		newBatchID:  opts.NewBatchID,
		predictions: map[string]*domain.Prediction{},
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newBatchID == nil {
		c.newBatchID = uuid.NewString
	}
	return c
}

// Load replaces the in-memory state with the stored snapshot.
// On error the catalog is left empty.
func (c *Catalog) Load(ctx context.Context) error {
	snap, err := c.store.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.predictions = map[string]*domain.Prediction{}
	c.lastLaunched = nil
	if err != nil {
		return fmt.Errorf("load predictions: %w", err)
	}
	snap = storage.CopySnapshot(snap)
	c.predictions = snap.Predictions
	c.lastLaunched = snap.LastLaunchedNumber
	c.updateGauge()
	return nil
}

// Import replaces the catalog with rows, in file order. A row is dropped when
// its key was already launched in the catalog being replaced, when its number
// continues the unbroken +1 chain started by the last retained number (the
// anchor does not move on a drop), or when its number was already retained in
// this batch.
// Unrecognized winner text imports as PLAYER. last_launched_number survives.
func (c *Catalog) Import(ctx context.Context, rows []domain.Row) (domain.ImportSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	summary := domain.ImportSummary{
		BatchID:  c.newBatchID(),
		Replaced: len(c.predictions),
	}

	next := make(map[string]*domain.Prediction, len(rows))
	// anchor is the last retained number, tip the end of its +1 chain
	var anchor, tip *int
	for _, row := range rows {
		if row.Number <= 0 {
			summary.SkippedInvalid++
			continue
		}
		key := idhash.PredictionKey(row.Number)

		if old, ok := c.predictions[key]; ok && old.State != domain.PredictionPending {
			summary.SkippedAlreadyLaunched++
			continue
		}
		if anchor != nil && row.Number > *anchor && row.Number <= *tip+1 {
			if row.Number == *tip+1 {
				n := row.Number
				tip = &n
			}
			summary.SkippedConsecutive++
			c.logger.Debug("consecutive prediction dropped at import",
				zap.Int("game_number", row.Number), zap.Int("anchor", *anchor))
			continue
		}
		if _, ok := next[key]; ok {
			summary.SkippedDuplicate++
			continue
		}

		winner, ok := domain.ParseWinner(row.WinnerText)
		if !ok {
			c.logger.Warn("unrecognized winner, defaulting to player",
				zap.Int("game_number", row.Number), zap.String("winner_text", row.WinnerText))
			winner = domain.WinnerPlayer
		}

		next[key] = &domain.Prediction{
			Key:             key,
			PredictedNumber: row.Number,
			ExpectedWinner:  winner,
			State:           domain.PredictionPending,
			ScheduledAt:     row.At,
			ImportedAt:      now,
			ImportBatch:     summary.BatchID,
		}
		n := row.Number
		anchor, tip = &n, &n
		summary.Imported++
	}

	c.predictions = next
	summary.Total = len(next)

	observability.RecordImport(summary.Imported, summary.SkippedConsecutive,
		summary.SkippedAlreadyLaunched, summary.SkippedDuplicate)
	c.updateGauge()
	c.logger.Info("predictions imported",
		zap.String("batch_id", summary.BatchID),
		zap.Int("imported", summary.Imported),
		zap.Int("skipped_consecutive", summary.SkippedConsecutive),
		zap.Int("skipped_already_launched", summary.SkippedAlreadyLaunched),
		zap.Int("replaced", summary.Replaced),
	)

	return summary, c.persist(ctx)
}

// FindClosestUnlaunched returns the PENDING prediction with the smallest
// predicted_number - current in [0, tolerance]. A candidate in that window
// whose number follows last_launched_number by one is verified on the spot
// as skipped and never returned. Candidates are visited by ascending number,
// so the smallest number wins a tie. The error reports a failed snapshot
// write of such skips; the in-memory state and the returned candidate stand.
func (c *Catalog) FindClosestUnlaunched(ctx context.Context, current, tolerance int) (*domain.Prediction, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		best     *domain.Prediction
		bestDiff int
		dirty    bool
	)
	for _, p := range c.sortedLocked(domain.PredictionPending) {
		diff := p.PredictedNumber - current
		if diff < 0 || diff > tolerance {
			continue
		}
		if c.lastLaunched != nil && p.PredictedNumber == *c.lastLaunched+1 {
			p.State = domain.PredictionVerified
			p.SkippedConsecutive = true
			p.VerifiedAt = c.now()
			dirty = true
			c.logger.Info("prediction skipped as successor of last launch",
				zap.String("key", p.Key), zap.Int("last_launched", *c.lastLaunched))
			continue
		}
		if best == nil || diff < bestDiff {
			best = p
			bestDiff = diff
		}
	}

	var err error
	if dirty {
		c.updateGauge()
		err = c.persist(ctx)
	}
	if best == nil {
		return nil, false, err
	}
	return copyPrediction(best), true, err
}

// Launch moves a PENDING prediction to LAUNCHED with its display message.
func (c *Catalog) Launch(ctx context.Context, key string, ref domain.DisplayRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.predictions[key]
	if !ok {
		return fmt.Errorf("launch %s: %w", key, storage.ErrNotFound)
	}
	if p.State != domain.PredictionPending {
		return fmt.Errorf("launch %s: %w", key, ErrNotPending)
	}

	p.State = domain.PredictionLaunched
	p.Display = ref
	p.LaunchedAt = c.now()
	n := p.PredictedNumber
	c.lastLaunched = &n

	observability.RecordLaunch()
	c.updateGauge()
	return c.persist(ctx)
}

// Complete moves a LAUNCHED prediction to VERIFIED with status.
func (c *Catalog) Complete(ctx context.Context, key string, status domain.VerifyStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.predictions[key]
	if !ok {
		return fmt.Errorf("complete %s: %w", key, storage.ErrNotFound)
	}
	if p.State != domain.PredictionLaunched {
		return fmt.Errorf("complete %s: %w", key, ErrNotLaunched)
	}

	p.State = domain.PredictionVerified
	p.Status = status
	p.VerifiedAt = c.now()

	observability.RecordVerdict(string(status))
	return c.persist(ctx)
}

// Launched returns the LAUNCHED predictions sorted by predicted number.
func (c *Catalog) Launched() []*domain.Prediction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyAll(c.sortedLocked(domain.PredictionLaunched))
}

// PendingList returns the PENDING predictions sorted by predicted number.
func (c *Catalog) PendingList() []*domain.Prediction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyAll(c.sortedLocked(domain.PredictionPending))
}

// Get returns a copy of the prediction stored under key.
func (c *Catalog) Get(key string) (*domain.Prediction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.predictions[key]
	if !ok {
		return nil, false
	}
	return copyPrediction(p), true
}

// LastLaunchedNumber returns the number of the most recent launch.
func (c *Catalog) LastLaunchedNumber() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lastLaunched == nil {
		return 0, false
	}
	return *c.lastLaunched, true
}

// Stats aggregates the catalog. Launched counts LAUNCHED and VERIFIED.
func (c *Catalog) Stats() domain.CatalogStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := domain.CatalogStats{Total: len(c.predictions)}
	for _, p := range c.predictions {
		if p.State == domain.PredictionPending {
			s.Pending++
		} else {
			s.Launched++
		}
	}
	return s
}

// Clear empties the catalog and persists. last_launched_number survives.
func (c *Catalog) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.predictions = map[string]*domain.Prediction{}
	c.updateGauge()
	return c.persist(ctx)
}

// sortedLocked returns the stored predictions in state, by ascending number.
func (c *Catalog) sortedLocked(state domain.PredictionState) []*domain.Prediction {
	var out []*domain.Prediction
	for _, p := range c.predictions {
		if p.State == state {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PredictedNumber < out[j].PredictedNumber
	})
	return out
}

func (c *Catalog) updateGauge() {
	pending := 0
	for _, p := range c.predictions {
		if p.State == domain.PredictionPending {
			pending++
		}
	}
	observability.UpdateCatalogPending(pending)
}

// persist writes the snapshot. Caller holds the write lock.
func (c *Catalog) persist(ctx context.Context) error {
	snap := &domain.CatalogSnapshot{
		Predictions:        c.predictions,
		LastLaunchedNumber: c.lastLaunched,
	}
	if err := c.store.Save(ctx, snap); err != nil {
		observability.RecordPersistenceError("predictions")
		c.logger.Error("persist predictions failed", zap.Int("predictions", len(c.predictions)), zap.Error(err))
		return fmt.Errorf("save predictions: %w", err)
	}
	return nil
}

func copyPrediction(p *domain.Prediction) *domain.Prediction {
	cp := *p
	return &cp
}

func copyAll(ps []*domain.Prediction) []*domain.Prediction {
	out := make([]*domain.Prediction, 0, len(ps))
	for _, p := range ps {
		out = append(out, copyPrediction(p))
	}
	return out
}
