package sentiment

import (
	"github.com/jonreiter/govader"

	"github.com/DeafMist/club-pulse/internal/models"
)

// Vader is the default Model, backed by the VADER lexicon.
type Vader struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVader loads the lexicon. Construct once and share.
func NewVader() *Vader {
	return &Vader{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *Vader) PolarityScores(text string) models.Polarity {
	s := v.analyzer.PolarityScores(text)
	return models.Polarity{
		Negative: s.Negative,
		Neutral:  s.Neutral,
		Positive: s.Positive,
		Compound: s.Compound,
	}
}
