package validation

import (
	"github.com/DeafMist/club-pulse/internal/aggregate"
	"github.com/DeafMist/club-pulse/internal/models"
)

// ClassMetrics holds one class's scores. Support is the number of rows whose
// manual label is the class.
type ClassMetrics struct {
	Label     models.Label `json:"label,omitempty"`
	Precision float64      `json:"precision"`
	Recall    float64      `json:"recall"`
	F1        float64      `json:"f1"`
	Support   int          `json:"support"`
}

// Result is the outcome of an evaluation. Confusion rows are manual labels,
// columns are predictions, both in models.Labels order.
type Result struct {
	Total     int                 `json:"total"`
	Accuracy  float64             `json:"accuracy"`
	Classes   [3]ClassMetrics     `json:"classes"`
	Macro     ClassMetrics        `json:"macro"`
	Confusion [3][3]int           `json:"confusion"`
	Predicted aggregate.Breakdown `json:"predicted"`
}

// Compute scores predicted against actual. Both slices must be the same length
// and contain only the three known labels.
func Compute(actual, predicted []models.Label) Result {
	res := Result{Total: len(actual), Predicted: aggregate.FromLabels(predicted)}

	matches := 0
	for i := range actual {
		a, p := actual[i].Index(), predicted[i].Index()
		if a < 0 || p < 0 {
			continue
		}
		res.Confusion[a][p]++
		if a == p {
			matches++
		}
	}
	res.Accuracy = ratio(matches, res.Total)

	for i, label := range models.Labels {
		tp := res.Confusion[i][i]
		predictedAs, support := 0, 0
		for j := range models.Labels {
			predictedAs += res.Confusion[j][i]
			support += res.Confusion[i][j]
		}

		m := ClassMetrics{
			Label:     label,
			Precision: ratio(tp, predictedAs),
			Recall:    ratio(tp, support),
			Support:   support,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		res.Classes[i] = m

		res.Macro.Precision += m.Precision / 3
		res.Macro.Recall += m.Recall / 3
		res.Macro.F1 += m.F1 / 3
	}
	res.Macro.Support = res.Total

	return res
}

// ratio divides, defining x/0 as 0.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
