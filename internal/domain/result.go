package domain

import "time"

// Result represents one confirmed game outcome kept by the ledger.
type Result struct {
	GameNumber int       // unique within the ledger
	Winner     Winner    // PLAYER | BANKER
	RecordedAt time.Time // parsed from the message, or capture time
	FirstGroup string    // first parenthesized card group, trimmed
	RawExcerpt string    // first characters of the source message (diagnostic)
}

// ResultStats aggregates the ledger. Rates are percentages.
type ResultStats struct {
	Total      int
	PlayerWins int
	BankerWins int
	PlayerRate float64
	BankerRate float64
}

// ComputeResultStats aggregates results. Rates are 0 when there are no results.
func ComputeResultStats(results []*Result) ResultStats {
	var s ResultStats
	for _, r := range results {
		switch r.Winner {
		case WinnerPlayer:
			s.PlayerWins++
		case WinnerBanker:
			s.BankerWins++
		}
	}
	s.Total = len(results)
	if s.Total > 0 {
		s.PlayerRate = float64(s.PlayerWins) / float64(s.Total) * 100
		s.BankerRate = float64(s.BankerWins) / float64(s.Total) * 100
	}
	return s
}

// Row is one line of the 3-column spreadsheet schema:
// date and time, game number, winner text.
type Row struct {
	At         time.Time // zero when the cell could not be parsed
	Number     int
	WinnerText string // kept raw, normalized with ParseWinner by consumers
}
