package models

import "time"

// DateLayout is the calendar-day format used for Record.Date on disk and on the wire.
const DateLayout = "2006-01-02"

// Record is one cleaned, source-attributed, dated text item ready for scoring.
type Record struct {
	Date   time.Time `json:"date"`
	Text   string    `json:"text"`
	Source string    `json:"source"`
}

// Day truncates ts to its UTC calendar day.
func Day(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SourceCounts maps a source label to the number of records it contributed to a batch.
type SourceCounts map[string]int

// Total sums every source's contribution.
func (c SourceCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// FetchResult is what a fetch request reports back to the caller.
type FetchResult struct {
	Key    BatchKey     `json:"key"`
	Total  int          `json:"total"`
	Counts SourceCounts `json:"counts"`
}
