package validation

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/DeafMist/club-pulse/internal/models"
)

// Accepted header names, first match wins.
var (
	textColumns   = []string{"text"}
	labelColumns  = []string{"label", "sentiment"}
	manualColumns = []string{"manual_label", "manual_sentiment"}
)

// Row is one record of a validation file. Label is empty when the file carries
// no prediction for it. Line is where the record starts in the file.
type Row struct {
	Line   int
	Text   string
	Label  models.Label
	Manual models.Label
}

// Table is a parsed validation file.
type Table struct {
	Rows      []Row
	HasText   bool
	HasLabel  bool
	HasManual bool
}

// ReadTable parses a CSV validation file. Label values are matched
// case-insensitively; anything outside the three classes is rejected.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, inputError("file is empty")
	}
	if err != nil {
		return nil, &ValidationInputError{Reason: "unreadable header", Err: err}
	}

	textCol := column(head, textColumns)
	labelCol := column(head, labelColumns)
	manualCol := column(head, manualColumns)

	t := &Table{HasText: textCol >= 0, HasLabel: labelCol >= 0, HasManual: manualCol >= 0}
	if !t.HasText && !t.HasLabel {
		return nil, inputError("file needs a %q or %q column", "text", "label")
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ValidationInputError{Reason: "unreadable row", Err: err}
		}

		line, _ := cr.FieldPos(0)
		row := Row{Line: line}
		row.Text = strings.TrimSpace(cell(rec, textCol))
		if row.Label, err = parseLabel(cell(rec, labelCol)); err != nil {
			return nil, inputError("line %d: %v", line, err)
		}
		if row.Manual, err = parseLabel(cell(rec, manualCol)); err != nil {
			return nil, inputError("line %d: %v", line, err)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func column(head []string, names []string) int {
	for _, want := range names {
		for i, h := range head {
			h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
			if h == want {
				return i
			}
		}
	}
	return -1
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func parseLabel(raw string) (models.Label, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	for _, l := range models.Labels {
		if strings.EqualFold(raw, string(l)) {
			return l, nil
		}
	}
	return "", errors.New("unknown label " + `"` + raw + `"`)
}
