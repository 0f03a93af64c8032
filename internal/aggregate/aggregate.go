// Package aggregate reduces a labeled corpus to category shares.
package aggregate

import "github.com/DeafMist/club-pulse/internal/models"

// Breakdown holds raw label counts and unrounded percentages. Total == 0 means
// "no data", which the percentages alone cannot tell apart from other cases.
type Breakdown struct {
	Total       int     `json:"total"`
	Positive    int     `json:"positive"`
	Negative    int     `json:"negative"`
	Neutral     int     `json:"neutral"`
	PositivePct float64 `json:"positive_pct"`
	NegativePct float64 `json:"negative_pct"`
	NeutralPct  float64 `json:"neutral_pct"`
}

// Aggregate counts labels and derives percentages.
func Aggregate(scored []models.ScoredRecord) Breakdown {
	labels := make([]models.Label, len(scored))
	for i, s := range scored {
		labels[i] = s.Label
	}
	return FromLabels(labels)
}

// FromLabels is Aggregate over bare labels. Labels outside the three classes
// count toward Total only.
func FromLabels(labels []models.Label) Breakdown {
	b := Breakdown{Total: len(labels)}
	for _, l := range labels {
		switch l {
		case models.Positive:
			b.Positive++
		case models.Negative:
			b.Negative++
		case models.Neutral:
			b.Neutral++
		}
	}
	if b.Total == 0 {
		return b
	}
	n := float64(b.Total)
	b.PositivePct = float64(b.Positive) / n * 100
	b.NegativePct = float64(b.Negative) / n * 100
	b.NeutralPct = float64(b.Neutral) / n * 100
	return b
}

// Percentages returns (positive, negative, neutral), the order the display expects.
func (b Breakdown) Percentages() (pos, neg, neu float64) {
	return b.PositivePct, b.NegativePct, b.NeutralPct
}

// Empty reports whether there was nothing to aggregate.
func (b Breakdown) Empty() bool { return b.Total == 0 }
