package report_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/club-pulse/internal/aggregate"
	"github.com/DeafMist/club-pulse/internal/models"
	"github.com/DeafMist/club-pulse/internal/report"
	"github.com/DeafMist/club-pulse/internal/validation"
)

func TestPercentRoundsAtRender(t *testing.T) {
	require.Equal(t, "33.3%", report.Percent(100.0/3))
	require.Equal(t, "66.7%", report.Percent(200.0/3))
	require.Equal(t, "0.0%", report.Percent(0))
}

func TestBreakdownEmpty(t *testing.T) {
	out := report.Breakdown("club-news", aggregate.Breakdown{})
	require.Contains(t, out, "No data")
	require.NotContains(t, out, "Positive")
}

func TestBreakdownAllNeutralIsNotEmpty(t *testing.T) {
	out := report.Breakdown("club-news", aggregate.FromLabels([]models.Label{models.Neutral, models.Neutral}))
	require.NotContains(t, out, "No data")
	require.Contains(t, out, "100.0%")
	require.Contains(t, out, "2 records")
}

func TestBreakdownShares(t *testing.T) {
	b := aggregate.FromLabels([]models.Label{models.Positive, models.Positive, models.Negative})
	out := report.Breakdown("club-subreddits", b)

	require.Contains(t, out, "club-subreddits")
	require.Contains(t, out, "66.7%")
	require.Contains(t, out, "33.3%")
	require.Contains(t, out, "3 records")
}

func TestSourcesSortedByCount(t *testing.T) {
	out := report.Sources(models.FetchResult{
		Key:    models.GeneralNews,
		Total:  5,
		Counts: models.SourceCounts{"ESPN": 1, "BBC Sport": 4, "Marca": 0},
	})

	require.Contains(t, out, "general-news: 5 records")
	bbc := strings.Index(out, "BBC Sport")
	espn := strings.Index(out, "ESPN")
	marca := strings.Index(out, "Marca")
	require.True(t, bbc < espn && espn < marca, out)
}

func TestEvaluation(t *testing.T) {
	res := validation.Compute(
		[]models.Label{models.Positive, models.Negative, models.Neutral, models.Negative},
		[]models.Label{models.Positive, models.Negative, models.Neutral, models.Positive},
	)
	out := report.Evaluation(&res)

	require.Contains(t, out, "Accuracy  75.0%")
	require.Contains(t, out, "manual \\ predicted")
	require.Contains(t, out, "Predicted labels")
	require.Contains(t, out, "50.0%")
}

func TestError(t *testing.T) {
	require.Contains(t, report.Error("Fetch failed"), "error: Fetch failed")
}
