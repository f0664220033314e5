package card

import "testing"

func TestHasThreeDistinct(t *testing.T) {
	tests := []struct {
		group string
		want  bool
	}{
		{"♠️♥️♦️", true},
		{"♠️♠️♥️", false},
		{"♠️♥️♦️♣️", false},
		{"A♠️2♥️9♦️", true},
		{"3♣️4♣️", false},
		{"K♠ 7❤ 2♣", true},
		{"K♠️7❤️2♥", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := HasThreeDistinct(tt.group); got != tt.want {
			t.Errorf("HasThreeDistinct(%q) = %v, want %v", tt.group, got, tt.want)
		}
	}
}

func TestCount_MixedEncodings(t *testing.T) {
	tests := []struct {
		group string
		want  int
	}{
		{"6♦️2♠️", 2},
		{"5♦6♦️", 2},
		{"A♠️2♥️9♦️", 3},
		{"10❤️J♥Q♥️", 3},
		{"no cards", 0},
	}

	for _, tt := range tests {
		if got := Count(tt.group); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.group, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("A♠️ 2❤️ 3♥️ 4❤ 5♦️ 6♣️")
	want := "A♠ 2♥ 3♥ 4♥ 5♦ 6♣"
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestSuit_String(t *testing.T) {
	if Heart.String() != "♥️" {
		t.Errorf("Heart.String() = %q", Heart.String())
	}
	if Suit(9).String() != "?" {
		t.Errorf("unknown suit should render as ?")
	}
}
