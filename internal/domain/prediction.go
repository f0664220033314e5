package domain

import "time"

// PredictionState is the lifecycle state of a prediction.
type PredictionState string

const (
	PredictionPending  PredictionState = "PENDING"
	PredictionLaunched PredictionState = "LAUNCHED"
	PredictionVerified PredictionState = "VERIFIED"
)

// String returns the string representation of PredictionState.
func (s PredictionState) String() string {
	return string(s)
}

// IsValid checks if the state is a valid value.
func (s PredictionState) IsValid() bool {
	return s == PredictionPending || s == PredictionLaunched || s == PredictionVerified
}

// VerifyStatus is the verdict recorded on a verified prediction.
// The empty value means no verdict.
type VerifyStatus string

const (
	StatusNone       VerifyStatus = ""
	StatusSuccessAt0 VerifyStatus = "SUCCESS_0"
	StatusSuccessAt1 VerifyStatus = "SUCCESS_1"
	StatusSuccessAt2 VerifyStatus = "SUCCESS_2"
	StatusFailure    VerifyStatus = "FAILURE"
)

// SuccessAt returns the success status for an offset in [0, 2].
func SuccessAt(offset int) (VerifyStatus, bool) {
	switch offset {
	case 0:
		return StatusSuccessAt0, true
	case 1:
		return StatusSuccessAt1, true
	case 2:
		return StatusSuccessAt2, true
	}
	return StatusNone, false
}

// IsTerminal reports whether the status closes a prediction.
func (s VerifyStatus) IsTerminal() bool {
	return s != StatusNone
}

// DisplayRef points at the outbound status message of a launched prediction.
type DisplayRef struct {
	ChatID    int64
	MessageID int
}

// IsZero reports whether no display message was recorded.
func (r DisplayRef) IsZero() bool {
	return r.ChatID == 0 && r.MessageID == 0
}

// Prediction is one imported forecast awaiting verification.
type Prediction struct {
	Key                string          // derived from PredictedNumber
	PredictedNumber    int             // target game number
	ExpectedWinner     Winner          // normalized at import
	State              PredictionState // PENDING | LAUNCHED | VERIFIED
	Status             VerifyStatus    // set when VERIFIED
	SkippedConsecutive bool            // verified without launch, successor of the last launch
	Display            DisplayRef      // set when LAUNCHED
	ScheduledAt        time.Time       // datetime cell of the imported row
	ImportedAt         time.Time
	ImportBatch        string // id shared by every prediction of one import
	LaunchedAt         time.Time
	VerifiedAt         time.Time
}

// CatalogSnapshot is the persisted state of the prediction catalog.
type CatalogSnapshot struct {
	Predictions        map[string]*Prediction // keyed by Prediction.Key
	LastLaunchedNumber *int                   // nil until the first launch
}

// CatalogStats aggregates the prediction catalog.
type CatalogStats struct {
	Total    int
	Launched int // launched or verified
	Pending  int
}

// ImportSummary reports the outcome of a catalog import.
type ImportSummary struct {
	Imported               int
	SkippedAlreadyLaunched int
	SkippedConsecutive     int
	SkippedDuplicate       int
	SkippedInvalid         int // non-positive game number
	Replaced               int // predictions discarded from the previous catalog
	Total                  int
	BatchID                string
}
