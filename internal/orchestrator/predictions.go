package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"baccarat-ledger/internal/display"
	"baccarat-ledger/internal/domain"
)

// verifyLaunched settles every launched prediction the live message decides.
func (o *Orchestrator) verifyLaunched(ctx context.Context, live int, text string) error {
	launched := o.catalog.Launched()
	if len(launched) == 0 {
		return nil
	}

	report := o.verifier.VerifyLaunched(live, text, launched)

	var errs []error
	for _, check := range report.Checks {
		p := check.Prediction
		if !check.Settles() {
			o.logger.Debug("prediction still waiting",
				zap.String("key", p.Key),
				zap.Int("offset", check.Offset),
				zap.String("reason", string(check.Verdict.Reason)),
			)
			continue
		}

		status := check.Verdict.Status
		if !p.Display.IsZero() {
			text := display.Format(p.PredictedNumber, p.ExpectedWinner, status)
			if err := o.out.Edit(ctx, p.Display.ChatID, p.Display.MessageID, text); err != nil {
				// State still moves to VERIFIED
				o.logger.Warn("display edit failed",
					zap.String("key", p.Key),
					zap.Error(err),
				)
			}
		}

		if err := o.catalog.Complete(ctx, p.Key, status); err != nil {
			errs = append(errs, fmt.Errorf("complete %s: %w", p.Key, err))
			continue
		}
		o.logger.Info("prediction verified",
			zap.String("key", p.Key),
			zap.Int("game_number", live),
			zap.Int("offset", check.Offset),
			zap.String("status", string(status)),
			zap.String("reason", string(check.Verdict.Reason)),
		)
	}
	return errors.Join(errs...)
}

// launchClosest launches the pending prediction closest to the live game.
// A failed send still launches with an empty display reference.
func (o *Orchestrator) launchClosest(ctx context.Context, live int, displayChannel int64) error {
	p, ok, err := o.catalog.FindClosestUnlaunched(ctx, live, o.tolerance)
	if err != nil {
		o.logger.Warn("catalog skip persist failed", zap.Int("game_number", live), zap.Error(err))
	}
	if !ok {
		return nil
	}

	var ref domain.DisplayRef
	text := display.Format(p.PredictedNumber, p.ExpectedWinner, domain.StatusNone)
	msgID, sendErr := o.out.Send(ctx, displayChannel, text)
	if sendErr != nil {
		o.logger.Warn("display send failed",
			zap.String("key", p.Key),
			zap.Int64("chat_id", displayChannel),
			zap.Error(sendErr),
		)
	} else {
		ref = domain.DisplayRef{ChatID: displayChannel, MessageID: msgID}
	}

	if err := o.catalog.Launch(ctx, p.Key, ref); err != nil {
		return fmt.Errorf("launch %s: %w", p.Key, err)
	}
	o.logger.Info("prediction launched",
		zap.String("key", p.Key),
		zap.Int("game_number", live),
		zap.Int("predicted_number", p.PredictedNumber),
	)
	return nil
}
