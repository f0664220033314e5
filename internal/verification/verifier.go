// Package verification decides whether a live result message settles a
// launched prediction. A prediction is checked at offsets 0, 1 and 2 past
// its number; past offset 2 it fails.
package verification

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/extractor"
)

// MaxOffset is the last offset at which a prediction can succeed.
const MaxOffset = 2

// Reason explains a verdict.
type Reason string

const (
	ReasonMatched            Reason = "matched"
	ReasonOffsetMismatch     Reason = "offset_mismatch"
	ReasonBeforePrediction   Reason = "before_prediction"
	ReasonWindowExceeded     Reason = "window_exceeded"
	ReasonVoidRound          Reason = "void_round"
	ReasonNotFinalized       Reason = "not_finalized"
	ReasonMissingPoints      Reason = "missing_points"
	ReasonInconsistentMarker Reason = "inconsistent_marker"
	ReasonTie                Reason = "tie"
	ReasonWrongWinner        Reason = "wrong_winner"
)

// Input is one verification attempt.
type Input struct {
	LiveNumber      int
	Text            string
	PredictedNumber int
	Expected        domain.Winner
	Offset          int // LiveNumber - PredictedNumber as computed by the caller
}

// Verdict is the outcome of one attempt.
// Terminal closes the prediction with Status. Flagged marks a failure the
// caller records at once although the attempt is not terminal.
type Verdict struct {
	Status   domain.VerifyStatus
	Terminal bool
	Flagged  bool
	Reason   Reason
}

// Points are the two totals read from a result message.
type Points struct {
	Player int
	Banker int
}

// Winner returns the side with the greater total, false on a tie.
func (p Points) Winner() (domain.Winner, bool) {
	switch {
	case p.Player > p.Banker:
		return domain.WinnerPlayer, true
	case p.Banker > p.Player:
		return domain.WinnerBanker, true
	}
	return "", false
}

// Verifier checks launched predictions against live messages.
type Verifier struct {
	points *regexp.Regexp
	logger *zap.Logger
}

// New creates a Verifier.
func New(logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{
		points: regexp.MustCompile(`(\d+)\([^)]+\)`),
		logger: logger,
	}
}

// Verify applies the checks in order and returns the first verdict reached.
func (v *Verifier) Verify(in Input) Verdict {
	realOffset := in.LiveNumber - in.PredictedNumber
	if realOffset != in.Offset {
		v.logger.Warn("offset mismatch",
			zap.Int("game_number", in.LiveNumber),
			zap.Int("predicted_number", in.PredictedNumber),
			zap.Int("offset", in.Offset),
			zap.Int("real_offset", realOffset),
		)
		return Verdict{Reason: ReasonOffsetMismatch}
	}
	if realOffset < 0 {
		return Verdict{Reason: ReasonBeforePrediction}
	}
	if realOffset > MaxOffset {
		return Verdict{Status: domain.StatusFailure, Terminal: true, Reason: ReasonWindowExceeded}
	}
	if extractor.IsVoid(in.Text) {
		return Verdict{Reason: ReasonVoidRound}
	}
	if extractor.IsInProgress(in.Text) || !extractor.IsFinal(in.Text) {
		return Verdict{Reason: ReasonNotFinalized}
	}

	pts, reason := v.ExtractPoints(in.Text)
	switch reason {
	case ReasonMissingPoints:
		v.logger.Warn("finalized message without points",
			zap.Int("game_number", in.LiveNumber), zap.Int("predicted_number", in.PredictedNumber))
		return Verdict{Status: domain.StatusFailure, Flagged: true, Reason: reason}
	case ReasonInconsistentMarker:
		v.logger.Warn("finalized marker contradicts points",
			zap.Int("game_number", in.LiveNumber),
			zap.Int("player", pts.Player),
			zap.Int("banker", pts.Banker),
		)
		return Verdict{Reason: reason}
	}

	actual, ok := pts.Winner()
	if !ok {
		return Verdict{Reason: ReasonTie}
	}
	if actual != in.Expected {
		// A wrong winner leaves later offsets open.
		return Verdict{Reason: ReasonWrongWinner}
	}

	status, _ := domain.SuccessAt(realOffset)
	return Verdict{Status: status, Terminal: true, Reason: ReasonMatched}
}

// ExtractPoints reads the player total before the first parenthesized group
// and the banker total before the second. On a finalized message it also
// requires the side carrying ✅ to hold the greater total.
// The returned reason is empty on success.
func (v *Verifier) ExtractPoints(text string) (Points, Reason) {
	m := v.points.FindAllStringSubmatch(text, 2)
	if len(m) < 2 {
		return Points{}, ReasonMissingPoints
	}
	player, err1 := strconv.Atoi(m[0][1])
	banker, err2 := strconv.Atoi(m[1][1])
	if err1 != nil || err2 != nil {
		return Points{}, ReasonMissingPoints
	}
	pts := Points{Player: player, Banker: banker}

	if !extractor.IsFinal(text) || extractor.IsVoid(text) {
		return pts, ""
	}
	sep := "-"
	if !strings.Contains(text, sep) {
		sep = extractor.MarkerVoid
	}
	parts := strings.Split(text, sep)
	switch {
	case extractor.IsFinal(parts[0]):
		if pts.Player <= pts.Banker {
			return pts, ReasonInconsistentMarker
		}
	case len(parts) > 1 && extractor.IsFinal(parts[1]):
		if pts.Banker <= pts.Player {
			return pts, ReasonInconsistentMarker
		}
	}
	return pts, ""
}
