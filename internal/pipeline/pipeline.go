// Package pipeline runs fetch, store, score and aggregate as one serialized flow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/DeafMist/club-pulse/internal/aggregate"
	"github.com/DeafMist/club-pulse/internal/corpus"
	"github.com/DeafMist/club-pulse/internal/events"
	"github.com/DeafMist/club-pulse/internal/logger"
	"github.com/DeafMist/club-pulse/internal/metrics"
	"github.com/DeafMist/club-pulse/internal/models"
	"github.com/DeafMist/club-pulse/internal/processing"
	"github.com/DeafMist/club-pulse/internal/relevance"
	"github.com/DeafMist/club-pulse/internal/sentiment"
	"github.com/DeafMist/club-pulse/internal/validation"
)

// Fetcher pulls one batch worth of records from an upstream family.
type Fetcher interface {
	Fetch(ctx context.Context, targets []string, filter *relevance.Filter) ([]models.Record, models.SourceCounts, error)
}

// Indexer mirrors scored records into a search index.
type Indexer interface {
	IndexRecords(ctx context.Context, docs []models.IndexedRecord) (int, error)
}

// Publisher announces finished steps.
type Publisher interface {
	PublishBatch(ctx context.Context, ev events.BatchEvent) error
}

// Options wires a Pipeline. Indexer and Publisher are optional.
type Options struct {
	Reddit    Fetcher
	News      Fetcher
	Store     *corpus.Store
	Scorer    *sentiment.Scorer
	Targets   map[models.BatchKey][]string
	Keywords  []string
	Indexer   Indexer
	Publisher Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

// Pipeline owns one corpus directory. Every public flow holds mu, so callers
// from several goroutines are served one at a time.
type Pipeline struct {
	mu        sync.Mutex
	fetchers  map[models.Source]Fetcher
	store     *corpus.Store
	scorer    *sentiment.Scorer
	evaluator *validation.Evaluator
	targets   map[models.BatchKey][]string
	keywords  []string
	indexer   Indexer
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// Analysis is the outcome of scoring one stored batch.
type Analysis struct {
	RunID     string                `json:"run_id"`
	Key       models.BatchKey       `json:"key"`
	Breakdown aggregate.Breakdown   `json:"breakdown"`
	Scored    []models.ScoredRecord `json:"-"`
}

// RunResult is a fetch followed by an analysis of the same batch.
type RunResult struct {
	RunID    string             `json:"run_id"`
	Fetch    models.FetchResult `json:"fetch"`
	Analysis *Analysis          `json:"analysis"`
}

// New validates opts and builds a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Reddit == nil || opts.News == nil {
		return nil, errors.New("pipeline: both fetchers are required")
	}
	if opts.Store == nil {
		return nil, errors.New("pipeline: corpus store is required")
	}
	if opts.Scorer == nil {
		return nil, errors.New("pipeline: scorer is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Keywords == nil {
		opts.Keywords = relevance.DefaultKeywords
	}

	return &Pipeline{
		fetchers: map[models.Source]Fetcher{
			models.SourceReddit: opts.Reddit,
			models.SourceNews:   opts.News,
		},
		store:     opts.Store,
		scorer:    opts.Scorer,
		evaluator: validation.NewEvaluator(opts.Scorer),
		targets:   opts.Targets,
		keywords:  opts.Keywords,
		indexer:   opts.Indexer,
		publisher: opts.Publisher,
		log:       opts.Logger.With("component", "pipeline"),
		now:       opts.Now,
	}, nil
}

// Fetch refreshes the batch for src/scope. On error nothing is written and the
// previous batch stays in place.
func (p *Pipeline) Fetch(ctx context.Context, src models.Source, scope models.Scope) (*models.FetchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.fetch(ctx, events.NewRunID(), src, scope)
}

// Analyze scores and aggregates the stored batch for key.
func (p *Pipeline) Analyze(ctx context.Context, key models.BatchKey) (*Analysis, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.analyze(ctx, events.NewRunID(), key)
}

// Run fetches src/scope and analyzes the fresh batch.
func (p *Pipeline) Run(ctx context.Context, src models.Source, scope models.Scope) (*RunResult, error) {
	return p.RunWithID(ctx, events.NewRunID(), src, scope)
}

// RunWithID is Run with a caller-chosen run id, used by the worker so events
// carry the id of the request that caused them.
func (p *Pipeline) RunWithID(ctx context.Context, runID string, src models.Source, scope models.Scope) (*RunResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fetched, err := p.fetch(ctx, runID, src, scope)
	if err != nil {
		return nil, err
	}
	analysis, err := p.analyze(ctx, runID, fetched.Key)
	if err != nil {
		return nil, err
	}
	return &RunResult{RunID: runID, Fetch: *fetched, Analysis: analysis}, nil
}

// Validate scores a user-labelled CSV against its manual labels.
func (p *Pipeline) Validate(ctx context.Context, r io.Reader) (*validation.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	defer metrics.ObserveStage("validate", start)

	table, err := validation.ReadTable(r)
	if err != nil {
		return nil, p.fail("validate", err)
	}
	res, err := p.evaluator.Evaluate(ctx, table)
	if err != nil {
		return nil, p.fail("validate", err)
	}

	metrics.ValidationAccuracy.Set(res.Accuracy)
	p.log.Info("validation finished",
		slog.Int("rows", res.Total),
		slog.Float64("accuracy", res.Accuracy),
		slog.Float64("macro_f1", res.Macro.F1),
	)
	return res, nil
}

// Export writes the scored batch for key as CSV, ready for manual labelling.
func (p *Pipeline) Export(ctx context.Context, key models.BatchKey, w io.Writer) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	scored, err := p.score(ctx, key)
	if err != nil {
		return 0, p.fail("export", err)
	}
	if err := corpus.WriteScored(w, scored); err != nil {
		return 0, p.fail("export", err)
	}
	return len(scored), nil
}

func (p *Pipeline) fetch(ctx context.Context, runID string, src models.Source, scope models.Scope) (*models.FetchResult, error) {
	start := time.Now()
	defer metrics.ObserveStage("fetch", start)

	key, err := models.KeyFor(src, scope)
	if err != nil {
		return nil, p.fail("fetch", err)
	}

	mode := relevance.ModeClubOnly
	if scope == models.ScopeGeneral {
		mode = relevance.ModeGeneral
	}
	filter := relevance.New(mode, p.keywords)

	targets := p.targets[key]
	log := p.log.With(slog.String("key", string(key)), slog.String("run_id", runID))
	log.Info("fetch started", slog.Int("targets", len(targets)), slog.String("mode", mode.String()))

	records, counts, err := p.fetchers[src].Fetch(ctx, targets, filter)
	if err != nil {
		return nil, p.fail("fetch", fmt.Errorf("fetch %s: %w", key, err))
	}
	if err := p.store.Write(key, records); err != nil {
		return nil, p.fail("fetch", err)
	}

	metrics.RecordsAccepted.WithLabelValues(string(key)).Add(float64(len(records)))
	res := &models.FetchResult{Key: key, Total: len(records), Counts: counts}
	log.Info("fetch finished", slog.Int("records", res.Total), slog.Int("sources", len(counts)))

	p.publish(ctx, events.BatchEvent{
		RunID:  runID,
		Kind:   events.KindFetched,
		Key:    key,
		Total:  res.Total,
		Counts: counts,
		At:     p.now().UTC(),
	})
	return res, nil
}

func (p *Pipeline) analyze(ctx context.Context, runID string, key models.BatchKey) (*Analysis, error) {
	start := time.Now()
	defer metrics.ObserveStage("analyze", start)

	scored, err := p.score(ctx, key)
	if err != nil {
		return nil, p.fail("analyze", err)
	}

	b := aggregate.Aggregate(scored)
	pos, neg, neu := b.Percentages()
	metrics.LabelShare.WithLabelValues(string(key), string(models.Positive)).Set(pos)
	metrics.LabelShare.WithLabelValues(string(key), string(models.Negative)).Set(neg)
	metrics.LabelShare.WithLabelValues(string(key), string(models.Neutral)).Set(neu)

	p.log.Info("analysis finished",
		slog.String("key", string(key)),
		slog.String("run_id", runID),
		slog.Int("records", b.Total),
	)

	p.index(ctx, runID, key, scored)
	p.publish(ctx, events.BatchEvent{
		RunID:     runID,
		Kind:      events.KindAnalyzed,
		Key:       key,
		Total:     b.Total,
		Breakdown: &b,
		At:        p.now().UTC(),
	})

	return &Analysis{RunID: runID, Key: key, Breakdown: b, Scored: scored}, nil
}

func (p *Pipeline) score(ctx context.Context, key models.BatchKey) ([]models.ScoredRecord, error) {
	records, err := p.store.Read(key)
	if errors.Is(err, corpus.ErrMissingCorpus) {
		return nil, &emptyCorpusError{key: key, err: err}
	}
	if err != nil {
		return nil, err
	}
	return p.scorer.Score(ctx, records)
}

// index mirrors an analysis into the search index. Failures are logged only;
// the corpus file stays the source of truth.
func (p *Pipeline) index(ctx context.Context, runID string, key models.BatchKey, scored []models.ScoredRecord) {
	if p.indexer == nil || len(scored) == 0 {
		return
	}

	now := p.now().UTC()
	docs := make([]models.IndexedRecord, len(scored))
	for i, s := range scored {
		docs[i] = models.IndexedRecord{
			ID:           processing.RecordID(s.Source, s.Text, s.Date),
			Batch:        key,
			RunID:        runID,
			ScoredRecord: s,
			IndexedAt:    now,
		}
	}

	n, err := p.indexer.IndexRecords(ctx, docs)
	if err != nil {
		p.log.Warn("index scored records", slog.String("key", string(key)), slog.Any("err", err))
		return
	}
	p.log.Debug("scored records indexed", slog.String("key", string(key)), slog.Int("docs", n))
}

func (p *Pipeline) publish(ctx context.Context, ev events.BatchEvent) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishBatch(ctx, ev); err != nil {
		p.log.Warn("publish batch event",
			slog.String("key", string(ev.Key)),
			slog.String("kind", string(ev.Kind)),
			slog.Any("err", err),
		)
	}
}

func (p *Pipeline) fail(stage string, err error) error {
	metrics.StageFailures.WithLabelValues(stage, errorKind(err)).Inc()
	p.log.Warn(stage+" failed", slog.Any("err", err))
	return err
}
