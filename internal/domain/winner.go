package domain

import "strings"

// Winner represents the side that won a round.
type Winner string

const (
	WinnerPlayer Winner = "PLAYER"
	WinnerBanker Winner = "BANKER"
)

// String returns the string representation of Winner.
func (w Winner) String() string {
	return string(w)
}

// IsValid checks if the winner is a valid value.
func (w Winner) IsValid() bool {
	return w == WinnerPlayer || w == WinnerBanker
}

// Label returns the label written to exports and chat messages.
func (w Winner) Label() string {
	switch w {
	case WinnerPlayer:
		return "Joueur"
	case WinnerBanker:
		return "Banquier"
	}
	return "N/A"
}

var (
	bankerTokens = []string{"banquier", "banker"}
	playerTokens = []string{"joueur", "player"}
)

// ParseWinner maps free text (spreadsheet cells, labels, single letters) to a Winner.
// Banker tokens are checked first.
func ParseWinner(text string) (Winner, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch lower {
	case "":
		return "", false
	case "b":
		return WinnerBanker, true
	case "p", "j":
		return WinnerPlayer, true
	}
	for _, tok := range bankerTokens {
		if strings.Contains(lower, tok) {
			return WinnerBanker, true
		}
	}
	for _, tok := range playerTokens {
		if strings.Contains(lower, tok) {
			return WinnerPlayer, true
		}
	}
	return "", false
}
