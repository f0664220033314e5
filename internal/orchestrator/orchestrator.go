// Package orchestrator routes inbound chat events to the result ledger,
// the prediction catalog and the admin commands.
// Flow for a stat channel message: relay → ledger → verify launched → launch closest
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"baccarat-ledger/internal/bus"
	"baccarat-ledger/internal/catalog"
	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/ledger"
	"baccarat-ledger/internal/observability"
	"baccarat-ledger/internal/storage"
	"baccarat-ledger/internal/verification"
)

// Orchestrator serializes event handling and the daily rollover.
type Orchestrator struct {
	// Services
	ledger   *ledger.Ledger
	catalog  *catalog.Catalog
	verifier *verification.Verifier

	// Stores
	settingsStore storage.SettingsStore
	archives      []storage.ResultArchive

	// Transport
	out        bus.Outbound
	downloader bus.Downloader

	adminID   int64
	tolerance int
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time

	// mu serializes Handle and Rollover
	mu           sync.Mutex
	awaitReset   bool
	relayed      map[int]int // source message id -> admin copy id
	settingsMu   sync.RWMutex
	settings     domain.Settings
	startedAt    time.Time
	lastRollover time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required services
	Ledger   *ledger.Ledger
	Catalog  *catalog.Catalog
	Verifier *verification.Verifier

	// Required stores
	Settings storage.SettingsStore

	// Optional history written at each rollover
	Archives []storage.ResultArchive

	// Required transport
	Outbound   bus.Outbound
	Downloader bus.Downloader

	AdminID   int64
	Defaults  domain.Settings // used until an admin command saves settings
	Tolerance int
	Location  *time.Location // rollover report dates, defaults to UTC
	Logger    *zap.Logger
	Now       func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		ledger:        opts.Ledger,
		catalog:       opts.Catalog,
		verifier:      opts.Verifier,
		settingsStore: opts.Settings,
		archives:      opts.Archives,
		out:           opts.Outbound,
		downloader:    opts.Downloader,
		adminID:       opts.AdminID,
		tolerance:     opts.Tolerance,
		location:      opts.Location,
		logger:        opts.Logger,
		now:           opts.Now,
		relayed:       make(map[int]int),
		settings:      opts.Defaults,
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.location == nil {
		o.location = time.UTC
	}
	if o.verifier == nil {
		o.verifier = verification.New(o.logger.Named("verifier"))
	}
	o.startedAt = o.now()
	return o
}

// LoadSettings replaces the defaults with saved settings when present.
func (o *Orchestrator) LoadSettings(ctx context.Context) error {
	s, err := o.settingsStore.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	o.settingsMu.Lock()
	o.settings = *s
	o.settingsMu.Unlock()
	return nil
}

// Settings returns the current channel settings.
func (o *Orchestrator) Settings() domain.Settings {
	o.settingsMu.RLock()
	defer o.settingsMu.RUnlock()
	return o.settings
}

func (o *Orchestrator) updateSettings(ctx context.Context, fn func(s *domain.Settings)) error {
	o.settingsMu.Lock()
	fn(&o.settings)
	s := o.settings
	o.settingsMu.Unlock()

	if err := o.settingsStore.Save(ctx, &s); err != nil {
		observability.RecordPersistenceError("settings")
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Run handles events until the stream closes or ctx is done.
// Handler errors are logged and never stop the loop.
func (o *Orchestrator) Run(ctx context.Context, events <-chan bus.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := o.Handle(ctx, ev); err != nil {
				o.logger.Error("event handling failed",
					zap.String("kind", string(ev.Kind)),
					zap.Int64("chat_id", ev.ChatID),
					zap.Int("message_id", ev.MessageID),
					zap.Error(err),
				)
			}
		}
	}
}

// Handle processes one inbound event.
func (o *Orchestrator) Handle(ctx context.Context, ev bus.Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	at := ev.At
	if at.IsZero() {
		at = o.now()
	}
	observability.RecordMessage(string(ev.Kind), at.Unix())

	switch ev.Kind {
	case bus.KindChannelJoined:
		return o.inviteChannel(ctx, ev)
	case bus.KindDocument:
		if !ev.Private {
			return nil
		}
		if ev.SenderID != o.adminID {
			return o.refuse(ctx, ev.ChatID)
		}
		// An upload abandons a pending reset confirmation
		o.awaitReset = false
		return o.importDocument(ctx, ev)
	case bus.KindMessage, bus.KindEdited:
		if ev.Private {
			return o.handlePrivate(ctx, ev)
		}
		if s := o.Settings(); s.StatChannel != 0 && ev.ChatID == s.StatChannel {
			return o.handleStatMessage(ctx, ev)
		}
	}
	return nil
}

// handleStatMessage runs the result pipeline for one stat channel message.
func (o *Orchestrator) handleStatMessage(ctx context.Context, ev bus.Event) error {
	var errs []error
	s := o.Settings()

	if s.TransferEnabled {
		if err := o.relay(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}

	outcome, err := o.ledger.Record(ctx, ev.Text)
	if err != nil {
		errs = append(errs, err)
	}
	if outcome.Accepted {
		o.notify(ctx, resultRecordedText(outcome.Result, ev.Kind == bus.KindEdited, o.ledger.Stats()))
	} else {
		o.logger.Debug("stat message not recorded",
			zap.Int("message_id", ev.MessageID),
			zap.String("reason", outcome.Reason.String()),
		)
	}

	live, ok := o.ledger.GameNumber(ev.Text)
	if !ok || s.DisplayChannel == 0 {
		return errors.Join(errs...)
	}

	if err := o.verifyLaunched(ctx, live, ev.Text); err != nil {
		errs = append(errs, err)
	}
	if err := o.launchClosest(ctx, live, s.DisplayChannel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Snapshot is the state exposed by the status endpoint.
type Snapshot struct {
	Settings     domain.Settings
	Results      domain.ResultStats
	Predictions  domain.CatalogStats
	StartedAt    time.Time
	LastRollover time.Time
}

// Status returns a snapshot of the current state.
func (o *Orchestrator) Status() Snapshot {
	o.settingsMu.RLock()
	last := o.lastRollover
	o.settingsMu.RUnlock()

	return Snapshot{
		Settings:     o.Settings(),
		Results:      o.ledger.Stats(),
		Predictions:  o.catalog.Stats(),
		StartedAt:    o.startedAt,
		LastRollover: last,
	}
}
