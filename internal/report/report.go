// Package report renders pipeline results for a terminal. Numbers are rounded
// here and nowhere else.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/DeafMist/club-pulse/internal/aggregate"
	"github.com/DeafMist/club-pulse/internal/models"
	"github.com/DeafMist/club-pulse/internal/validation"
)

const barWidth = 30

// Percent formats a share with one decimal.
func Percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// Breakdown renders the three label shares as bars. An empty breakdown prints
// a "no data" line instead of three zero bars.
func Breakdown(title string, b aggregate.Breakdown) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")

	if b.Empty() {
		sb.WriteString(mutedStyle.Render("No data: the batch has no records."))
		return panelStyle.Render(sb.String())
	}

	pos, neg, neu := b.Percentages()
	rows := []struct {
		label models.Label
		pct   float64
		count int
	}{
		{models.Positive, pos, b.Positive},
		{models.Negative, neg, b.Negative},
		{models.Neutral, neu, b.Neutral},
	}
	for _, r := range rows {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(string(r.label)),
			bar(r.pct, labelColor(string(r.label))),
			fmt.Sprintf(" %6s  (%d)", Percent(r.pct), r.count),
		))
		sb.WriteString("\n")
	}
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("%d records", b.Total)))

	return panelStyle.Render(sb.String())
}

func bar(pct float64, color lipgloss.Color) string {
	filled := int(math.Round(pct / 100 * barWidth))
	filled = max(0, min(barWidth, filled))
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", barWidth-filled))
}

// Sources renders the per-source counts of a fetch, largest first.
func Sources(res models.FetchResult) string {
	type row struct {
		name  string
		count int
	}
	rows := make([]row, 0, len(res.Counts))
	for name, n := range res.Counts {
		rows = append(rows, row{name, n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].name < rows[j].name
	})

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %d records", res.Key, res.Total)))
	sb.WriteString("\n")
	for i, r := range rows {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%-35s %5d", r.name, r.count))
	}
	if len(rows) == 0 {
		sb.WriteString(mutedStyle.Render("no sources"))
	}
	return panelStyle.Render(sb.String())
}

// Evaluation renders validation metrics and the confusion matrix.
func Evaluation(res *validation.Result) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Validation"))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Rows      %d\n", res.Total))
	sb.WriteString(fmt.Sprintf("Accuracy  %s\n", Percent(res.Accuracy*100)))
	sb.WriteString(fmt.Sprintf("Precision %s\n", Percent(res.Macro.Precision*100)))
	sb.WriteString(fmt.Sprintf("Recall    %s\n", Percent(res.Macro.Recall*100)))
	sb.WriteString(fmt.Sprintf("F1        %s\n\n", Percent(res.Macro.F1*100)))

	sb.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %9s %9s %9s %8s", "class", "precision", "recall", "f1", "support")))
	sb.WriteString("\n")
	for _, c := range res.Classes {
		sb.WriteString(fmt.Sprintf("%-10s %9.2f %9.2f %9.2f %8d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support))
	}

	sb.WriteString("\n")
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%-18s %9s %9s %9s", "manual \\ predicted", "Positive", "Neutral", "Negative")))
	for i, l := range models.Labels {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%-18s", l))
		for j := range models.Labels {
			sb.WriteString(fmt.Sprintf(" %9d", res.Confusion[i][j]))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Render(sb.String()),
		Breakdown("Predicted labels", res.Predicted),
	)
}

// Error renders a user-facing error line.
func Error(msg string) string {
	return errorStyle.Render("error: " + msg)
}
