package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/DeafMist/club-pulse/internal/logger"
	"github.com/DeafMist/club-pulse/internal/models"
	"github.com/DeafMist/club-pulse/internal/processing"
	"github.com/DeafMist/club-pulse/internal/relevance"
	"github.com/DeafMist/club-pulse/internal/sources"
)

const rssFetcher = "rss"

var errNoPublished = errors.New("missing published timestamp")

// RSSConfig bounds how many entries are read from each feed.
type RSSConfig struct {
	LimitPerFeed int
}

// RSSFetcher reads RSS and Atom feeds.
type RSSFetcher struct {
	client   *Client
	resolver *sources.Resolver
	limit    int
	log      *slog.Logger
}

// NewRSSFetcher builds a fetcher; a nil resolver uses the default rule table.
func NewRSSFetcher(client *Client, resolver *sources.Resolver, cfg RSSConfig, log *slog.Logger) *RSSFetcher {
	if cfg.LimitPerFeed <= 0 {
		cfg.LimitPerFeed = defaultLimitPerFeed
	}
	if resolver == nil {
		resolver = sources.NewResolver(nil)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &RSSFetcher{
		client:   client,
		resolver: resolver,
		limit:    cfg.LimitPerFeed,
		log:      log.With("fetcher", rssFetcher),
	}
}

// Fetch reads every feed in targets. A feed that cannot be downloaded or parsed
// is logged and skipped; the call fails only when no feed could be read.
func (f *RSSFetcher) Fetch(ctx context.Context, targets []string, filter *relevance.Filter) ([]models.Record, models.SourceCounts, error) {
	b := newBatch(rssFetcher)

	var failures []error
	for _, feedURL := range targets {
		if err := f.fetchFeed(ctx, feedURL, filter, b); err != nil {
			if ctx.Err() != nil {
				return nil, nil, &FetchError{Target: feedURL, Err: ctx.Err()}
			}
			f.log.Warn("feed skipped", slog.String("feed", feedURL), slog.Any("err", err))
			failures = append(failures, err)
		}
	}

	if len(targets) > 0 && len(failures) == len(targets) {
		return nil, nil, &FetchError{
			Target: fmt.Sprintf("%d feeds", len(targets)),
			Err:    errors.Join(failures...),
		}
	}

	return b.records, b.counts, nil
}

func (f *RSSFetcher) fetchFeed(ctx context.Context, feedURL string, filter *relevance.Filter, b *batch) error {
	body, err := f.client.Get(ctx, rssFetcher, feedURL)
	if err != nil {
		return err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return &FetchError{Target: feedURL, Err: fmt.Errorf("%w: %v", ErrParse, err)}
	}

	source := f.resolver.Resolve(feed.Title)
	entries := feed.Items
	if len(entries) > f.limit {
		entries = entries[:f.limit]
	}

	added := 0
	for _, entry := range entries {
		if !filter.Match(entryText(entry)) {
			b.skip("irrelevant")
			continue
		}

		cleaned := processing.Normalize(entry.Title)
		if cleaned == "" {
			b.skip("empty")
			continue
		}

		if entry.PublishedParsed == nil {
			perr := &ParseError{Target: feedURL, Entry: entry.Title, Err: errNoPublished}
			f.log.Debug("entry skipped", slog.Any("err", perr))
			b.skip("parse")
			continue
		}

		if b.add(models.Record{
			Date:   models.Day(*entry.PublishedParsed),
			Text:   cleaned,
			Source: source,
		}) {
			added++
		}
	}

	f.log.Info("feed fetched",
		slog.String("feed", feedURL),
		slog.String("source", source),
		slog.String("mode", filter.Mode().String()),
		slog.Int("entries", len(feed.Items)),
		slog.Int("records", added),
	)
	return nil
}

// entryText is the string the relevance filter sees: the title plus the
// summary/description with markup reduced to text. Full article content is
// left out.
func entryText(entry *gofeed.Item) string {
	parts := []string{entry.Title}
	if t := htmlText(entry.Description); t != "" {
		parts = append(parts, t)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func htmlText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	return strings.TrimSpace(doc.Text())
}
