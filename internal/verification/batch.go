package verification

import "baccarat-ledger/internal/domain"

// Check is the verdict reached for one launched prediction.
type Check struct {
	Prediction *domain.Prediction
	Offset     int
	Verdict    Verdict
}

// Settles reports whether the caller must record the verdict now.
func (c Check) Settles() bool {
	return c.Verdict.Terminal || c.Verdict.Flagged
}

// Report contains the checks of one live message.
type Report struct {
	LiveNumber int
	Checks     []Check
	Settled    int
}

// VerifyLaunched verifies every launched prediction against one live message.
func (v *Verifier) VerifyLaunched(liveNumber int, text string, launched []*domain.Prediction) Report {
	report := Report{LiveNumber: liveNumber}
	for _, p := range launched {
		offset := liveNumber - p.PredictedNumber
		verdict := v.Verify(Input{
			LiveNumber:      liveNumber,
			Text:            text,
			PredictedNumber: p.PredictedNumber,
			Expected:        p.ExpectedWinner,
			Offset:          offset,
		})
		check := Check{Prediction: p, Offset: offset, Verdict: verdict}
		if check.Settles() {
			report.Settled++
		}
		report.Checks = append(report.Checks, check)
	}
	return report
}
