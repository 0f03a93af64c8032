package aggregate_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/club-pulse/internal/aggregate"
	"github.com/DeafMist/club-pulse/internal/models"
)

func scored(labels ...models.Label) []models.ScoredRecord {
	out := make([]models.ScoredRecord, len(labels))
	for i, l := range labels {
		out[i] = models.ScoredRecord{Label: l}
	}
	return out
}

func TestAggregateZeroRecords(t *testing.T) {
	b := aggregate.Aggregate(nil)
	pos, neg, neu := b.Percentages()
	require.Zero(t, pos)
	require.Zero(t, neg)
	require.Zero(t, neu)
	require.False(t, math.IsNaN(pos))
	require.True(t, b.Empty())
}

func TestAggregatePercentages(t *testing.T) {
	b := aggregate.Aggregate(scored(models.Positive, models.Positive, models.Negative))
	require.Equal(t, 3, b.Total)
	require.Equal(t, 2, b.Positive)
	require.Equal(t, 1, b.Negative)
	require.Equal(t, 0, b.Neutral)

	pos, neg, neu := b.Percentages()
	require.InDelta(t, 66.6666, pos, 1e-3)
	require.InDelta(t, 33.3333, neg, 1e-3)
	require.Zero(t, neu)
}

func TestAggregateInvariants(t *testing.T) {
	sets := [][]models.Label{
		{models.Neutral},
		{models.Positive, models.Neutral, models.Negative},
		{models.Negative, models.Negative, models.Neutral, models.Positive, models.Neutral, models.Neutral, models.Positive},
	}
	for _, labels := range sets {
		b := aggregate.Aggregate(scored(labels...))
		require.Equal(t, len(labels), b.Positive+b.Neutral+b.Negative)
		for _, pct := range []float64{b.PositivePct, b.NegativePct, b.NeutralPct} {
			require.GreaterOrEqual(t, pct, 0.0)
			require.LessOrEqual(t, pct, 100.0)
		}
		require.InDelta(t, 100.0, b.PositivePct+b.NegativePct+b.NeutralPct, 1e-9)
	}
}

func TestAllNeutralIsNotEmpty(t *testing.T) {
	b := aggregate.Aggregate(scored(models.Neutral, models.Neutral))
	require.False(t, b.Empty())
	require.Equal(t, 100.0, b.NeutralPct)
}
