// Package validation measures the scorer against human-labelled samples.
package validation

import (
	"context"
	"fmt"

	"github.com/DeafMist/club-pulse/internal/aggregate"
	"github.com/DeafMist/club-pulse/internal/models"
	"github.com/DeafMist/club-pulse/internal/sentiment"
)

// Evaluator fills in missing predictions with a scorer and computes metrics.
type Evaluator struct {
	scorer *sentiment.Scorer
}

// NewEvaluator builds an evaluator. A nil scorer works for files that already
// carry a prediction on every row.
func NewEvaluator(scorer *sentiment.Scorer) *Evaluator {
	return &Evaluator{scorer: scorer}
}

// Predict returns the predicted label of every row, scoring rows that have none.
func (e *Evaluator) Predict(ctx context.Context, t *Table) ([]models.Label, error) {
	labels := make([]models.Label, len(t.Rows))
	var pending []int
	for i, row := range t.Rows {
		if row.Label != "" {
			labels[i] = row.Label
			continue
		}
		if row.Text == "" {
			return nil, inputError("line %d has neither a label nor text to score", row.Line)
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return labels, nil
	}
	if e.scorer == nil {
		return nil, inputError("%d rows need scoring but no scorer is configured", len(pending))
	}

	records := make([]models.Record, len(pending))
	for j, i := range pending {
		records[j] = models.Record{Text: t.Rows[i].Text}
	}
	scored, err := e.scorer.Score(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("score validation rows: %w", err)
	}
	for j, i := range pending {
		labels[i] = scored[j].Label
	}
	return labels, nil
}

// Breakdown aggregates the predicted labels of t; it does not need ground truth.
func (e *Evaluator) Breakdown(ctx context.Context, t *Table) (aggregate.Breakdown, error) {
	labels, err := e.Predict(ctx, t)
	if err != nil {
		return aggregate.Breakdown{}, err
	}
	return aggregate.FromLabels(labels), nil
}

// Evaluate compares predictions with the manual labels. Without a manual
// column it fails with ErrMissingGroundTruth, carrying the predicted breakdown
// when the rows could be labelled.
func (e *Evaluator) Evaluate(ctx context.Context, t *Table) (*Result, error) {
	if !t.HasManual {
		missing := &ValidationInputError{Reason: "cannot evaluate", Err: ErrMissingGroundTruth}
		if b, err := e.Breakdown(ctx, t); err == nil && !b.Empty() {
			missing.Predicted = &b
		}
		return nil, missing
	}
	if len(t.Rows) == 0 {
		return nil, inputError("file has no rows")
	}

	actual := make([]models.Label, len(t.Rows))
	for i, row := range t.Rows {
		if row.Manual == "" {
			return nil, inputError("line %d has no manual label", row.Line)
		}
		actual[i] = row.Manual
	}

	predicted, err := e.Predict(ctx, t)
	if err != nil {
		return nil, err
	}

	res := Compute(actual, predicted)
	return &res, nil
}
