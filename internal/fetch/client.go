package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/DeafMist/club-pulse/internal/logger"
	"github.com/DeafMist/club-pulse/internal/metrics"
)

const maxBodyBytes = 8 << 20

// ClientConfig tunes the shared HTTP client used by every fetcher.
type ClientConfig struct {
	UserAgent       string
	Timeout         time.Duration
	RetryAttempts   int
	RetryBaseDelay  time.Duration
	RequestInterval time.Duration
}

// Client performs paced GET requests with bounded retries.
type Client struct {
	http      *http.Client
	userAgent string
	attempts  int
	baseDelay time.Duration
	limiter   *rate.Limiter
	log       *slog.Logger
}

// NewClient builds a Client. A zero RequestInterval disables pacing.
func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if log == nil {
		log = logger.Discard()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
	}

	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		attempts:  cfg.RetryAttempts,
		baseDelay: cfg.RetryBaseDelay,
		limiter:   limiter,
		log:       log,
	}
}

// Get downloads url and returns the body. Transport errors, 429 and 5xx are
// retried with exponential backoff; any other non-2xx status fails immediately.
func (c *Client) Get(ctx context.Context, fetcher, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.attempts; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay << (attempt - 1)
			if ra := retryAfter(lastErr); ra > 0 {
				delay = ra
			}
			metrics.FetchRequests.WithLabelValues(fetcher, "retry").Inc()
			c.log.Warn("retrying upstream request",
				slog.String("url", url),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", delay),
				slog.Any("err", lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, &FetchError{Target: url, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		body, err := c.do(ctx, url)
		if err == nil {
			metrics.FetchRequests.WithLabelValues(fetcher, "success").Inc()
			return body, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}

	metrics.FetchRequests.WithLabelValues(fetcher, "error").Inc()
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Target: url, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Target: url, Err: fmt.Errorf("create request: %w", err)}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{Target: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &statusError{
			FetchError: FetchError{Target: url, Status: resp.StatusCode},
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Target: url, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// statusError carries the Retry-After hint alongside the public FetchError.
type statusError struct {
	FetchError
	retryAfter time.Duration
}

func (e *statusError) Unwrap() error { return &e.FetchError }

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Status == http.StatusTooManyRequests || se.Status >= 500
	}
	return true
}

func retryAfter(err error) time.Duration {
	var se *statusError
	if errors.As(err, &se) {
		return se.retryAfter
	}
	return 0
}

func parseRetryAfter(raw string) time.Duration {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	d := time.Duration(seconds) * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
