// Package app assembles a Pipeline and its optional mirrors from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DeafMist/club-pulse/internal/config"
	"github.com/DeafMist/club-pulse/internal/corpus"
	"github.com/DeafMist/club-pulse/internal/elasticsearch"
	"github.com/DeafMist/club-pulse/internal/events"
	"github.com/DeafMist/club-pulse/internal/fetch"
	"github.com/DeafMist/club-pulse/internal/pipeline"
	"github.com/DeafMist/club-pulse/internal/sentiment"
	"github.com/DeafMist/club-pulse/internal/sources"
)

// Runtime is a wired pipeline plus the clients it owns.
type Runtime struct {
	Pipeline  *pipeline.Pipeline
	Catalog   *config.Catalog
	Search    *elasticsearch.Client
	Publisher *events.Publisher
}

// Build wires the pipeline described by cfg. Elasticsearch and Kafka are only
// connected when configured; an unreachable index is logged and skipped.
func Build(ctx context.Context, cfg config.Common, log *slog.Logger) (*Runtime, error) {
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	store, err := corpus.New(cfg.DataDir, log)
	if err != nil {
		return nil, err
	}

	client := fetch.NewClient(fetch.ClientConfig{
		UserAgent:       cfg.Fetch.UserAgent,
		Timeout:         cfg.Fetch.Timeout,
		RetryAttempts:   cfg.Fetch.RetryAttempts,
		RetryBaseDelay:  cfg.Fetch.RetryDelay,
		RequestInterval: cfg.Fetch.RequestInterval,
	}, log)

	reddit := fetch.NewRedditFetcher(client, fetch.RedditConfig{
		BaseURL:  cfg.Fetch.RedditBaseURL,
		PageSize: cfg.Fetch.RedditPageSize,
		MaxPages: cfg.Fetch.RedditMaxPages,
		Limit:    cfg.Fetch.RedditLimit,
	}, log)
	news := fetch.NewRSSFetcher(client, sources.NewResolver(catalog.Sources), fetch.RSSConfig{
		LimitPerFeed: cfg.Fetch.RSSLimitPerFeed,
	}, log)

	rt := &Runtime{Catalog: catalog}
	opts := pipeline.Options{
		Reddit:   reddit,
		News:     news,
		Store:    store,
		Scorer:   sentiment.NewScorer(sentiment.NewVader(), cfg.ScorerWorkers),
		Targets:  catalog.Targets(),
		Keywords: catalog.Keywords,
		Logger:   log,
	}

	if cfg.SearchEnabled() {
		es, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err != nil {
			return nil, err
		}
		ensureCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = es.EnsureIndex(ensureCtx)
		cancel()
		if err != nil {
			log.Warn("elasticsearch unavailable, index mirror may lag", slog.Any("err", err))
		}
		rt.Search = es
		opts.Indexer = es
	}

	if cfg.EventsEnabled() {
		rt.Publisher = events.NewPublisher(cfg.KafkaBrokers, cfg.EventsTopic, log)
		opts.Publisher = rt.Publisher
	}

	rt.Pipeline, err = pipeline.New(opts)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return rt, nil
}

// Close releases the Kafka writer, if any.
func (r *Runtime) Close() error {
	var errs []error
	if r.Publisher != nil {
		errs = append(errs, r.Publisher.Close())
	}
	return errors.Join(errs...)
}
