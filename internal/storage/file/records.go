package file

import (
	"time"

	"baccarat-ledger/internal/domain"
)

type resultRecord struct {
	GameNumber int       `yaml:"game_number"`
	Winner     string    `yaml:"winner"`
	RecordedAt time.Time `yaml:"recorded_at"`
	FirstGroup string    `yaml:"first_group,omitempty"`
	RawExcerpt string    `yaml:"raw_excerpt,omitempty"`
}

func toResultRecord(r *domain.Result) resultRecord {
	return resultRecord{
		GameNumber: r.GameNumber,
		Winner:     string(r.Winner),
		RecordedAt: r.RecordedAt,
		FirstGroup: r.FirstGroup,
		RawExcerpt: r.RawExcerpt,
	}
}

func (rec resultRecord) toDomain() *domain.Result {
	return &domain.Result{
		GameNumber: rec.GameNumber,
		Winner:     domain.Winner(rec.Winner),
		RecordedAt: rec.RecordedAt,
		FirstGroup: rec.FirstGroup,
		RawExcerpt: rec.RawExcerpt,
	}
}

type catalogDocument struct {
	LastLaunchedNumber *int                        `yaml:"last_launched_number"`
	Predictions        map[string]predictionRecord `yaml:"predictions"`
}

type predictionRecord struct {
	PredictedNumber    int       `yaml:"predicted_number"`
	ExpectedWinner     string    `yaml:"expected_winner"`
	State              string    `yaml:"state"`
	Status             string    `yaml:"status,omitempty"`
	SkippedConsecutive bool      `yaml:"skipped_consecutive,omitempty"`
	DisplayChatID      int64     `yaml:"display_chat_id,omitempty"`
	DisplayMessageID   int       `yaml:"display_message_id,omitempty"`
	ScheduledAt        time.Time `yaml:"scheduled_at,omitempty"`
	ImportedAt         time.Time `yaml:"imported_at"`
	ImportBatch        string    `yaml:"import_batch,omitempty"`
	LaunchedAt         time.Time `yaml:"launched_at,omitempty"`
	VerifiedAt         time.Time `yaml:"verified_at,omitempty"`
}

func toPredictionRecord(p *domain.Prediction) predictionRecord {
	return predictionRecord{
		PredictedNumber:    p.PredictedNumber,
		ExpectedWinner:     string(p.ExpectedWinner),
		State:              string(p.State),
		Status:             string(p.Status),
		SkippedConsecutive: p.SkippedConsecutive,
		DisplayChatID:      p.Display.ChatID,
		DisplayMessageID:   p.Display.MessageID,
		ScheduledAt:        p.ScheduledAt,
		ImportedAt:         p.ImportedAt,
		ImportBatch:        p.ImportBatch,
		LaunchedAt:         p.LaunchedAt,
		VerifiedAt:         p.VerifiedAt,
	}
}

func (rec predictionRecord) toDomain(key string) *domain.Prediction {
	return &domain.Prediction{
		Key:                key,
		PredictedNumber:    rec.PredictedNumber,
		ExpectedWinner:     domain.Winner(rec.ExpectedWinner),
		State:              domain.PredictionState(rec.State),
		Status:             domain.VerifyStatus(rec.Status),
		SkippedConsecutive: rec.SkippedConsecutive,
		Display:            domain.DisplayRef{ChatID: rec.DisplayChatID, MessageID: rec.DisplayMessageID},
		ScheduledAt:        rec.ScheduledAt,
		ImportedAt:         rec.ImportedAt,
		ImportBatch:        rec.ImportBatch,
		LaunchedAt:         rec.LaunchedAt,
		VerifiedAt:         rec.VerifiedAt,
	}
}

type settingsRecord struct {
	StatChannel     int64 `yaml:"stat_channel"`
	DisplayChannel  int64 `yaml:"display_channel"`
	TransferEnabled bool  `yaml:"transfer_enabled"`
}
