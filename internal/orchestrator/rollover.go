package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"baccarat-ledger/internal/idhash"
	"baccarat-ledger/internal/observability"
	"baccarat-ledger/internal/storage"
)

// RolloverResult reports one daily rollover.
type RolloverResult struct {
	Day      time.Time
	Exported int
	BatchID  string
	Imported int
}

// Rollover closes the previous day: export, archive, re-import as
// predictions, then clear the ledger.
// Phases:
//  1. Export and send the day's results (skipped when empty)
//  2. Archive the results under a deterministic batch id
//  3. Import the same rows as the new prediction catalog
//  4. Clear the ledger and notify
func (o *Orchestrator) Rollover(ctx context.Context) (*RolloverResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := time.Now()
	res, err := o.rollover(ctx)

	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.RecordRollover(status, time.Since(start).Seconds())

	o.settingsMu.Lock()
	o.lastRollover = o.now()
	o.settingsMu.Unlock()

	return res, err
}

func (o *Orchestrator) rollover(ctx context.Context) (*RolloverResult, error) {
	day := o.now().In(o.location).Add(-24 * time.Hour)
	res := &RolloverResult{Day: day}
	var errs []error

	results := o.ledger.Results()
	if len(results) == 0 {
		o.notify(ctx, "📊 **Rapport Journalier**\n\nAucune partie enregistrée aujourd'hui (01h00 à 00h59).")
	} else {
		// Phase 1: Export
		var buf bytes.Buffer
		if err := o.ledger.Export(&buf); err != nil {
			errs = append(errs, fmt.Errorf("phase 1 (export) failed: %w", err))
		} else {
			name := "resultats_journee_" + day.Format("02-01-2006") + ".xlsx"
			caption := fmt.Sprintf("📊 **Rapport Journalier du %s**\n\n%s\n\n🔄 La base de données va être remise à zéro...",
				day.Format("02/01/2006"), statsText(o.ledger.Stats()))
			if err := o.out.SendDocument(ctx, o.adminID, name, &buf, caption); err != nil {
				o.logger.Warn("daily report send failed", zap.Error(err))
			}
			res.Exported = len(results)
		}

		// Phase 2: Archive
		res.BatchID = idhash.RolloverBatchID(day, len(results))
		for _, archive := range o.archives {
			err := archive.InsertBulk(ctx, res.BatchID, results)
			switch {
			case errors.Is(err, storage.ErrDuplicateKey):
				o.logger.Info("rollover batch already archived", zap.String("batch_id", res.BatchID))
			case err != nil:
				observability.RecordPersistenceError("archive")
				errs = append(errs, fmt.Errorf("phase 2 (archive) failed: %w", err))
			}
		}

		// Phase 3: Import as predictions
		summary, err := o.catalog.Import(ctx, o.ledger.Rows())
		if err != nil {
			errs = append(errs, fmt.Errorf("phase 3 (import) failed: %w", err))
		}
		res.Imported = summary.Imported
		o.notify(ctx, importText("📥 **Import automatique des prédictions**", summary))
	}

	// Phase 4: Clear
	if err := o.ledger.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("phase 4 (clear) failed: %w", err))
	}
	o.notify(ctx, "🔄 **Remise à zéro effectuée à 00h59**\n\nNouvelle journée commencée.")

	o.logger.Info("rollover completed",
		zap.String("day", day.Format("2006-01-02")),
		zap.Int("exported", res.Exported),
		zap.Int("imported", res.Imported),
		zap.String("batch_id", res.BatchID),
	)
	return res, errors.Join(errs...)
}
