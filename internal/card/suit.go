// Package card recognizes playing-card suit glyphs in result messages.
package card

import "strings"

type Suit byte

const (
	Spade   Suit = iota // ♠️
	Heart               // ♥️
	Club                // ♣️
	Diamond             // ♦️
)

func (s Suit) String() string {
	switch s {
	case Diamond:
		return "♦️"
	case Club:
		return "♣️"
	case Heart:
		return "♥️"
	case Spade:
		return "♠️"
	}
	return "?"
}

// canonical folds every encoding of a suit onto the bare symbol.
// Longer forms come first so the variation selector is consumed with its glyph.
var canonical = strings.NewReplacer(
	"❤️", "♥",
	"♥️", "♥",
	"❤", "♥",
	"♠️", "♠",
	"♦️", "♦",
	"♣️", "♣",
)

// Normalize rewrites suit glyphs into the 4-symbol alphabet ♠ ♥ ♦ ♣.
func Normalize(s string) string {
	return canonical.Replace(s)
}

// ParseSuit maps a bare suit symbol to its Suit.
func ParseSuit(r rune) (Suit, bool) {
	switch r {
	case '♠':
		return Spade, true
	case '♥':
		return Heart, true
	case '♣':
		return Club, true
	case '♦':
		return Diamond, true
	}
	return 0, false
}

// Counts returns the number of occurrences of each suit in a card group.
func Counts(group string) [4]int {
	var counts [4]int
	for _, r := range Normalize(group) {
		if s, ok := ParseSuit(r); ok {
			counts[s]++
		}
	}
	return counts
}

// Count returns the number of suit glyphs in a card group.
func Count(group string) int {
	total := 0
	for _, c := range Counts(group) {
		total += c
	}
	return total
}

// HasThreeDistinct reports whether a group holds exactly three cards
// of three different suits, each suit appearing once.
func HasThreeDistinct(group string) bool {
	distinct, total := 0, 0
	for _, c := range Counts(group) {
		if c > 1 {
			return false
		}
		if c == 1 {
			distinct++
		}
		total += c
	}
	return total == 3 && distinct == 3
}
