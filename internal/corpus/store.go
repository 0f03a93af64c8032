// Package corpus persists fetched batches as flat CSV snapshots, one file per batch key.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DeafMist/club-pulse/internal/logger"
	"github.com/DeafMist/club-pulse/internal/models"
)

// ErrMissingCorpus is returned by Read when nothing was written for the key yet.
var ErrMissingCorpus = errors.New("missing corpus")

var header = []string{"date", "text", "source"}

// Store keeps one CSV file per batch key under a directory.
type Store struct {
	dir string
	log *slog.Logger
}

// New creates the data directory if needed.
func New(dir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create corpus dir: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Store{dir: dir, log: log.With("component", "corpus")}, nil
}

// Path returns the file backing key.
func (s *Store) Path(key models.BatchKey) string {
	return filepath.Join(s.dir, string(key)+".csv")
}

// Write replaces the batch stored under key.
func (s *Store) Write(key models.BatchKey, records []models.Record) error {
	tmp, err := os.CreateTemp(s.dir, "."+string(key)+"-*.csv")
	if err != nil {
		return fmt.Errorf("create temp corpus: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write([]string{r.Date.UTC().Format(models.DateLayout), r.Text, r.Source}); err != nil {
			tmp.Close()
			return fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp corpus: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path(key)); err != nil {
		return fmt.Errorf("replace corpus: %w", err)
	}

	s.log.Info("batch written", slog.String("key", string(key)), slog.Int("records", len(records)))
	return nil
}

// Read loads the batch stored under key.
func (s *Store) Read(key models.BatchKey) ([]models.Record, error) {
	f, err := os.Open(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingCorpus, key)
	}
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode parses a corpus CSV. Columns are located by header name, so extra
// derived columns are tolerated.
func Decode(r io.Reader) ([]models.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, want := range header {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("corpus missing column %q", want)
		}
	}

	records := []models.Record{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}

		date, err := time.Parse(models.DateLayout, field(row, cols["date"]))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad date: %w", line, err)
		}
		records = append(records, models.Record{
			Date:   date,
			Text:   field(row, cols["text"]),
			Source: field(row, cols["source"]),
		})
	}
	return records, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
