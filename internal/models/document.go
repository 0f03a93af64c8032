package models

import "time"

// IndexedRecord is the search-index view of a scored record. The index is a
// read model rebuilt from analyses; the corpus files stay authoritative.
type IndexedRecord struct {
	ID    string   `json:"id"`
	Batch BatchKey `json:"batch"`
	RunID string   `json:"run_id"`
	ScoredRecord
	IndexedAt time.Time `json:"indexed_at"`
}
