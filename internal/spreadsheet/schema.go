// Package spreadsheet reads and writes the 3-column result schema:
// date and time, zero-padded game number, winner text.
// The first row of every file is a header.
package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"baccarat-ledger/internal/domain"
)

// SheetName is the title of the exported worksheet.
const SheetName = "Résultats"

// EmptyPlaceholder is the only data cell of an export without results.
const EmptyPlaceholder = "Aucun résultat enregistré."

// DateTimeLayout is the format of the date and time column.
const DateTimeLayout = "02/01/2006 - 15:04"

// Headers of the 3 columns.
var Headers = []string{"Date & Heure", "Numéro", "Victoire (Joueur/Banquier)"}

// parseLayouts are tried in order on text date cells.
var parseLayouts = []string{
	DateTimeLayout,
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2006-01-02",
}

// FormatDateTime renders t for the date column. The zero time is "N/A".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(DateTimeLayout)
}

// FormatNumber renders a game number padded to 3 digits.
func FormatNumber(n int) string {
	return fmt.Sprintf("%03d", n)
}

// ParseDateTime parses a text date cell as wall clock time in loc (UTC when
// nil). Returns false when no layout matches.
func ParseDateTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, orUTC(loc)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a game number cell ("060", "60", "60.0").
func ParseNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid game number %q", s)
	}
	return int(f), nil
}

// ResultRows converts ledger results to spreadsheet rows.
func ResultRows(results []*domain.Result) []domain.Row {
	rows := make([]domain.Row, 0, len(results))
	for _, r := range results {
		rows = append(rows, domain.Row{
			At:         r.RecordedAt,
			Number:     r.GameNumber,
			WinnerText: r.Winner.Label(),
		})
	}
	return rows
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// record renders one row as its 3 cell strings, the date in loc.
func record(r domain.Row, loc *time.Location) []string {
	at := r.At
	if !at.IsZero() {
		at = at.In(orUTC(loc))
	}
	return []string{FormatDateTime(at), FormatNumber(r.Number), r.WinnerText}
}

// parseRecord builds a row from 3 cells. ok is false when a cell is empty.
// parseDate is applied to the first cell.
func parseRecord(cells []string, parseDate func(string) time.Time) (domain.Row, bool, error) {
	if len(cells) < 3 {
		return domain.Row{}, false, nil
	}
	for _, c := range cells[:3] {
		if strings.TrimSpace(c) == "" {
			return domain.Row{}, false, nil
		}
	}

	n, err := ParseNumber(cells[1])
	if err != nil {
		return domain.Row{}, false, err
	}

	return domain.Row{
		At:         parseDate(cells[0]),
		Number:     n,
		WinnerText: strings.TrimSpace(cells[2]),
	}, true, nil
}
