// Package extractor turns raw result messages into ledger records.
//
// Rules are applied in a fixed order and the first failing rule decides
// the rejection reason:
//  1. in-progress marker present
//  2. void marker present
//  3. finalized marker missing
//  4. no game number tag
//  5. game number already recorded
//  6. game number is the successor of a recorded number
//  7. fewer than two parenthesized card groups
//  8. neither or both groups hold three distinct suits
package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"baccarat-ledger/internal/card"
	"baccarat-ledger/internal/domain"
)

// DefaultExcerptLen is the number of characters of the source kept on a result.
const DefaultExcerptLen = 200

// Reason explains why a message was not recorded. Empty means accepted.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonInProgress      Reason = "in_progress"
	ReasonVoid            Reason = "void"
	ReasonNotFinalized    Reason = "not_finalized"
	ReasonNoGameNumber    Reason = "no_game_number"
	ReasonAlreadyRecorded Reason = "already_recorded"
	ReasonConsecutive     Reason = "consecutive"
	ReasonTooFewGroups    Reason = "too_few_groups"
	ReasonBothGroups      Reason = "both_groups_three_suits"
	ReasonNoGroup         Reason = "no_three_suit_group"
)

// String returns the string representation of Reason.
func (r Reason) String() string {
	return string(r)
}

// Describe returns a short human readable explanation.
func (r Reason) Describe() string {
	switch r {
	case ReasonNone:
		return "enregistré"
	case ReasonInProgress:
		return "message en cours d'édition (⏰)"
	case ReasonVoid:
		return "manche nulle (🔰)"
	case ReasonNotFinalized:
		return "message non finalisé (pas de ✅)"
	case ReasonNoGameNumber:
		return "pas de numéro de jeu"
	case ReasonAlreadyRecorded:
		return "jeu déjà enregistré"
	case ReasonConsecutive:
		return "numéro consécutif ignoré"
	case ReasonTooFewGroups:
		return "pas assez de groupes de cartes"
	case ReasonBothGroups:
		return "les deux groupes ont 3 couleurs différentes"
	case ReasonNoGroup:
		return "aucun groupe avec 3 couleurs différentes"
	}
	return string(r)
}

// Index reports which game numbers the ledger already holds.
type Index interface {
	Contains(gameNumber int) bool
}

// Options configures an Extractor.
type Options struct {
	Now        func() time.Time // capture clock, defaults to time.Now
	Location   *time.Location   // zone of dates written in messages, defaults to time.Local
	ExcerptLen int              // defaults to DefaultExcerptLen
}

// Extractor parses result messages.
type Extractor struct {
	gameTag    *regexp.Regexp
	gameAlt    *regexp.Regexp
	groups     *regexp.Regexp
	dateRe     *regexp.Regexp
	clockRe    *regexp.Regexp
	trailingPB *regexp.Regexp
	now        func() time.Time
	loc        *time.Location
	excerptLen int
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	e := &Extractor{
		gameTag:    regexp.MustCompile(`(?i)#N\s*(\d+)\.?`),
		gameAlt:    regexp.MustCompile(`(?i)jeu\s*#?\s*(\d+)`),
		groups:     regexp.MustCompile(`\(([^)]*)\)`),
		dateRe:     regexp.MustCompile(`(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})`),
		clockRe:    regexp.MustCompile(`(\d{1,2}):(\d{2})(?::(\d{2}))?`),
		trailingPB: regexp.MustCompile(`(?i)\)\s*-\s*\([^)]*\)\s*([PB])`),
		now:        opts.Now,
		loc:        opts.Location,
		excerptLen: opts.ExcerptLen,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.excerptLen <= 0 {
		e.excerptLen = DefaultExcerptLen
	}
	return e
}

// GameNumber extracts the game number from a "#N123" style tag,
// falling back to "jeu #123".
func (e *Extractor) GameNumber(text string) (int, bool) {
	for _, re := range []*regexp.Regexp{e.gameTag, e.gameAlt} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		return n, true
	}
	return 0, false
}

// Groups returns the contents of every parenthesized group, in order.
func (e *Extractor) Groups(text string) []string {
	matches := e.groups.FindAllStringSubmatch(text, -1)
	groups := make([]string, 0, len(matches))
	for _, m := range matches {
		groups = append(groups, m[1])
	}
	return groups
}

// Extract applies the recording rules. It returns the result on success,
// or nil and the reason of the first failing rule.
func (e *Extractor) Extract(text string, known Index) (*domain.Result, Reason) {
	if IsInProgress(text) {
		return nil, ReasonInProgress
	}
	if IsVoid(text) {
		return nil, ReasonVoid
	}
	if !IsFinal(text) {
		return nil, ReasonNotFinalized
	}

	number, ok := e.GameNumber(text)
	if !ok {
		return nil, ReasonNoGameNumber
	}
	if known != nil {
		if known.Contains(number) {
			return nil, ReasonAlreadyRecorded
		}
		if known.Contains(number - 1) {
			return nil, ReasonConsecutive
		}
	}

	groups := e.Groups(text)
	if len(groups) < 2 {
		return nil, ReasonTooFewGroups
	}

	first := card.HasThreeDistinct(groups[0])
	second := card.HasThreeDistinct(groups[1])

	var winner domain.Winner
	switch {
	case first && second:
		return nil, ReasonBothGroups
	case first:
		winner = domain.WinnerPlayer
	case second:
		winner = domain.WinnerBanker
	default:
		return nil, ReasonNoGroup
	}

	return &domain.Result{
		GameNumber: number,
		Winner:     winner,
		RecordedAt: e.RecordedAt(text),
		FirstGroup: strings.TrimSpace(groups[0]),
		RawExcerpt: excerpt(text, e.excerptLen),
	}, ReasonNone
}

func excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
