package extractor

import (
	"strings"

	"baccarat-ledger/internal/domain"
)

var (
	playerHints = []string{"JOUEUR", "PLAYER", "J GAGNE", "VICTOIRE J"}
	bankerHints = []string{"BANQUIER", "BANKER", "B GAGNE", "VICTOIRE B"}
)

// WinnerHint looks for explicit winner indications that some feeds add:
// an arrow before the separator, player/banker words, a finalized or
// target marker on one side, or a trailing P/B letter after the groups.
// The suit rule in Extract stays authoritative for recorded results.
func (e *Extractor) WinnerHint(text string) (domain.Winner, bool) {
	if parts := strings.Split(text, " - "); len(parts) >= 2 {
		if strings.Contains(parts[0], markerArrow) {
			return domain.WinnerPlayer, true
		}
		if strings.Contains(parts[1], markerArrow) {
			return domain.WinnerBanker, true
		}
	}

	upper := strings.ToUpper(text)
	if containsAny(upper, playerHints) {
		return domain.WinnerPlayer, true
	}
	if containsAny(upper, bankerHints) {
		return domain.WinnerBanker, true
	}

	if strings.Contains(text, markerTarget) || strings.Contains(text, MarkerFinal) {
		parts := strings.Split(text, "|")
		if len(parts) < 2 {
			parts = strings.Split(text, " - ")
		}
		if len(parts) >= 2 {
			if markedSide(parts[0]) {
				return domain.WinnerPlayer, true
			}
			if markedSide(parts[1]) {
				return domain.WinnerBanker, true
			}
		}
	}

	if m := e.trailingPB.FindStringSubmatch(text); m != nil {
		if strings.EqualFold(m[1], "P") {
			return domain.WinnerPlayer, true
		}
		return domain.WinnerBanker, true
	}
	return "", false
}

func markedSide(part string) bool {
	return strings.Contains(part, MarkerFinal) || strings.Contains(part, markerTarget)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
