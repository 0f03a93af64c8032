package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/DeafMist/club-pulse/internal/models"
)

var scoredHeader = []string{"date", "text", "source", "compound", "neg", "neu", "pos", "sentiment"}

// WriteScored encodes scored records with their derived columns, the layout a
// labeller fills a manual_label column into before validation.
func WriteScored(w io.Writer, scored []models.ScoredRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(scoredHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range scored {
		row := []string{
			s.Date.UTC().Format(models.DateLayout),
			s.Text,
			s.Source,
			formatFloat(s.Compound),
			formatFloat(s.Negative),
			formatFloat(s.Neutral),
			formatFloat(s.Positive),
			string(s.Label),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
