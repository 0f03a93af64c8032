// Package sentiment labels records with a rule-based polarity model.
package sentiment

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/club-pulse/internal/models"
)

// Label thresholds on the compound score.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Model is the polarity collaborator. Implementations must be safe for
// concurrent use and must not keep state between calls.
type Model interface {
	PolarityScores(text string) models.Polarity
}

// ModelFunc adapts a plain function to Model.
type ModelFunc func(text string) models.Polarity

func (f ModelFunc) PolarityScores(text string) models.Polarity { return f(text) }

// LabelFor maps a compound score to its class.
func LabelFor(compound float64) models.Label {
	switch {
	case compound >= PositiveThreshold:
		return models.Positive
	case compound <= NegativeThreshold:
		return models.Negative
	default:
		return models.Neutral
	}
}

// Scorer applies a Model to records.
type Scorer struct {
	model   Model
	workers int
}

// NewScorer builds a scorer; workers <= 0 means GOMAXPROCS.
func NewScorer(model Model, workers int) *Scorer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scorer{model: model, workers: workers}
}

// ScoreText scores a single text.
func (s *Scorer) ScoreText(text string) (models.Polarity, models.Label) {
	p := s.model.PolarityScores(text)
	return p, LabelFor(p.Compound)
}

// Score labels every record independently. The output is index-aligned with
// records.
func (s *Scorer) Score(ctx context.Context, records []models.Record) ([]models.ScoredRecord, error) {
	out := make([]models.ScoredRecord, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, label := s.ScoreText(records[i].Text)
			out[i] = models.ScoredRecord{Record: records[i], Polarity: p, Label: label}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
