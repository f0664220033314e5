// Package display renders the status message posted for a launched prediction:
//
//	<marker><predicted_number> <badge>statut :<glyph>
package display

import (
	"fmt"

	"baccarat-ledger/internal/domain"
)

// Marker opens every display message.
const Marker = "🔵"

// Badges by expected winner.
const (
	BadgePlayer = "👗 𝐕𝟏👗"
	BadgeBanker = "👗 𝐕2👗"
)

// Status glyphs.
const (
	GlyphPending    = "⏳"
	GlyphSuccessAt0 = "✅0️⃣"
	GlyphSuccessAt1 = "✅1️⃣"
	GlyphSuccessAt2 = "✅2️⃣"
	GlyphFailure    = "⭕✍🏻"
)

// Badge returns the badge of the expected winner. Unknown values get the player badge.
func Badge(w domain.Winner) string {
	if w == domain.WinnerBanker {
		return BadgeBanker
	}
	return BadgePlayer
}

// StatusGlyph returns the glyph of a verdict. StatusNone is pending.
func StatusGlyph(s domain.VerifyStatus) string {
	switch s {
	case domain.StatusSuccessAt0:
		return GlyphSuccessAt0
	case domain.StatusSuccessAt1:
		return GlyphSuccessAt1
	case domain.StatusSuccessAt2:
		return GlyphSuccessAt2
	case domain.StatusFailure:
		return GlyphFailure
	}
	return GlyphPending
}

// Format renders the display message of a prediction with status.
func Format(predictedNumber int, expected domain.Winner, status domain.VerifyStatus) string {
	return fmt.Sprintf("%s%d %sstatut :%s", Marker, predictedNumber, Badge(expected), StatusGlyph(status))
}
