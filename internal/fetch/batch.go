package fetch

import (
	"github.com/DeafMist/club-pulse/internal/metrics"
	"github.com/DeafMist/club-pulse/internal/models"
	"github.com/DeafMist/club-pulse/internal/processing"
)

// batch accumulates the records of one fetch invocation and keeps the
// per-source counts in step with them.
type batch struct {
	fetcher string
	records []models.Record
	counts  models.SourceCounts
	seen    map[string]struct{}
}

func newBatch(fetcher string) *batch {
	return &batch{
		fetcher: fetcher,
		counts:  make(models.SourceCounts),
		seen:    make(map[string]struct{}),
	}
}

// touch makes sure source shows up in the counts even if it contributes nothing.
func (b *batch) touch(source string) {
	if _, ok := b.counts[source]; !ok {
		b.counts[source] = 0
	}
}

// add appends rec unless an identical record is already in the batch.
func (b *batch) add(rec models.Record) bool {
	id := processing.RecordID(rec.Source, rec.Text, rec.Date)
	if _, dup := b.seen[id]; dup {
		b.skip("duplicate")
		return false
	}
	b.seen[id] = struct{}{}
	b.records = append(b.records, rec)
	b.counts[rec.Source]++
	return true
}

func (b *batch) skip(reason string) {
	metrics.ItemsSkipped.WithLabelValues(b.fetcher, reason).Inc()
}
