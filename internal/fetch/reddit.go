package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DeafMist/club-pulse/internal/logger"
	"github.com/DeafMist/club-pulse/internal/models"
	"github.com/DeafMist/club-pulse/internal/processing"
	"github.com/DeafMist/club-pulse/internal/relevance"
)

const (
	redditFetcher       = "reddit"
	defaultRedditBase   = "https://www.reddit.com"
	defaultPageSize     = 100
	defaultMaxPages     = 20
	defaultRedditLimit  = 100
	defaultLimitPerFeed = 50
)

// RedditConfig bounds how far the listing walk goes per subreddit.
type RedditConfig struct {
	BaseURL  string
	PageSize int
	MaxPages int
	Limit    int
}

// RedditFetcher walks the hot listing of each subreddit.
type RedditFetcher struct {
	client   *Client
	base     string
	pageSize int
	maxPages int
	limit    int
	log      *slog.Logger
}

// NewRedditFetcher applies defaults for zero-valued settings.
func NewRedditFetcher(client *Client, cfg RedditConfig, log *slog.Logger) *RedditFetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultRedditBase
	}
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.Limit <= 0 {
		cfg.Limit = defaultRedditLimit
	}
	if log == nil {
		log = logger.Discard()
	}
	return &RedditFetcher{
		client:   client,
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
		limit:    cfg.Limit,
		log:      log.With("fetcher", redditFetcher),
	}
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data listingPost `json:"data"`
		} `json:"children"`
		After *string `json:"after"`
	} `json:"data"`
}

type listingPost struct {
	Title      string  `json:"title"`
	CreatedUTC float64 `json:"created_utc"`
}

// Fetch returns the accepted records of every subreddit in targets. Any failed
// request aborts the whole invocation.
func (f *RedditFetcher) Fetch(ctx context.Context, targets []string, filter *relevance.Filter) ([]models.Record, models.SourceCounts, error) {
	b := newBatch(redditFetcher)

	for _, sub := range targets {
		if err := f.fetchSubreddit(ctx, sub, filter, b); err != nil {
			return nil, nil, err
		}
	}

	return b.records, b.counts, nil
}

func (f *RedditFetcher) fetchSubreddit(ctx context.Context, sub string, filter *relevance.Filter, b *batch) error {
	source := "r/" + sub
	b.touch(source)

	accepted := 0
	after := ""
	for page := 0; accepted < f.limit && page < f.maxPages; page++ {
		listing, err := f.page(ctx, sub, after)
		if err != nil {
			return err
		}

		posts := listing.Data.Children
		f.log.Debug("listing page",
			slog.String("subreddit", sub),
			slog.Int("page", page),
			slog.Int("posts", len(posts)),
		)
		if len(posts) == 0 {
			break
		}

		for _, child := range posts {
			if accepted >= f.limit {
				break
			}
			p := child.Data
			title := strings.TrimSpace(p.Title)
			if title == "" {
				b.skip("empty")
				continue
			}
			if !filter.Match(title) {
				b.skip("irrelevant")
				continue
			}
			cleaned := processing.Normalize(title)
			if cleaned == "" {
				b.skip("empty")
				continue
			}
			rec := models.Record{
				Date:   models.Day(unixSeconds(p.CreatedUTC)),
				Text:   cleaned,
				Source: source,
			}
			if b.add(rec) {
				accepted++
			}
		}

		if listing.Data.After == nil || *listing.Data.After == "" {
			break
		}
		after = *listing.Data.After
	}

	f.log.Info("subreddit fetched",
		slog.String("source", source),
		slog.String("mode", filter.Mode().String()),
		slog.Int("records", accepted),
	)
	return nil
}

func (f *RedditFetcher) page(ctx context.Context, sub, after string) (*listingResponse, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(f.pageSize))
	if after != "" {
		q.Set("after", after)
	}
	endpoint := fmt.Sprintf("%s/r/%s/hot.json?%s", f.base, url.PathEscape(sub), q.Encode())

	body, err := f.client.Get(ctx, redditFetcher, endpoint)
	if err != nil {
		return nil, err
	}

	var listing listingResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, &FetchError{Target: endpoint, Err: fmt.Errorf("decode listing: %w", err)}
	}
	return &listing, nil
}

func unixSeconds(v float64) time.Time {
	sec := int64(v)
	return time.Unix(sec, int64((v-float64(sec))*float64(time.Second))).UTC()
}
