package extractor

import (
	"strconv"
	"time"
)

// RecordedAt returns the date and time written in the message.
// Both a day/month/year date and an HH:MM[:SS] clock must be present,
// otherwise the capture time is used. Two-digit years are 20xx.
func (e *Extractor) RecordedAt(text string) time.Time {
	if t, ok := e.parseEmbedded(text); ok {
		return t
	}
	return e.now().In(e.loc).Truncate(time.Second)
}

func (e *Extractor) parseEmbedded(text string) (time.Time, bool) {
	d := e.dateRe.FindStringSubmatch(text)
	c := e.clockRe.FindStringSubmatch(text)
	if d == nil || c == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(d[1])
	month, _ := strconv.Atoi(d[2])
	year, _ := strconv.Atoi(d[3])
	switch len(d[3]) {
	case 2:
		year += 2000
	case 4:
	default:
		return time.Time{}, false
	}

	hour, _ := strconv.Atoi(c[1])
	minute, _ := strconv.Atoi(c[2])
	second := 0
	if c[3] != "" {
		second, _ = strconv.Atoi(c[3])
	}

	if month < 1 || month > 12 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, e.loc)
	// time.Date normalizes overflow, e.g. 31/02 becomes 03/03.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
