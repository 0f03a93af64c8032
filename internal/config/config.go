package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Fetch tunes upstream HTTP access for the fetchers.
type Fetch struct {
	UserAgent       string
	Timeout         time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	RequestInterval time.Duration

	RedditBaseURL  string
	RedditPageSize int
	RedditMaxPages int
	RedditLimit    int

	RSSLimitPerFeed int
}

// Common contains the pipeline settings shared by every binary that runs it.
// An empty ElasticsearchAddr or KafkaBrokers disables that mirror.
type Common struct {
	DataDir       string
	CatalogPath   string
	ScorerWorkers int
	Fetch         Fetch

	ElasticsearchAddr  string
	ElasticsearchIndex string

	KafkaBrokers []string
	EventsTopic  string
}

// SearchEnabled reports whether scored records are mirrored to Elasticsearch.
func (c Common) SearchEnabled() bool { return c.ElasticsearchAddr != "" }

// EventsEnabled reports whether batch events are published to Kafka.
func (c Common) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Analyzer is the CLI configuration.
type Analyzer struct {
	Common
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr       string
	DefaultPage    int
	MaxPage        int
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// Worker holds configuration for the Kafka run-request consumer.
type Worker struct {
	Common
	KafkaTopic     string
	KafkaConsumer  string
	DedupeCapacity int
	DedupeTTL      time.Duration
	QueueCapacity  int
	RunTimeout     time.Duration
}

// DLQTopic is where requests that could not be run end up.
func (w *Worker) DLQTopic() string { return w.KafkaTopic + "_dlq" }

// Retention configures the index cleanup loop.
type Retention struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
	Interval           time.Duration
	MaxAge             time.Duration
	BatchSize          int
}

// LoadDotEnv reads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func loadCommon(kafkaFallback string) (Common, error) {
	c := Common{
		DataDir:       getEnv("DATA_DIR", "data"),
		CatalogPath:   getEnv("CATALOG_PATH", ""),
		ScorerWorkers: getInt("SCORER_WORKERS", 0),
		Fetch: Fetch{
			UserAgent:       getEnv("FETCH_USER_AGENT", "club-pulse/1.0"),
			Timeout:         getDuration("FETCH_TIMEOUT", "10s"),
			RetryAttempts:   getInt("FETCH_RETRY_ATTEMPTS", 2),
			RetryDelay:      getDuration("FETCH_RETRY_DELAY", "1s"),
			RequestInterval: getDuration("FETCH_REQUEST_INTERVAL", "0s"),
			RedditBaseURL:   getEnv("REDDIT_BASE_URL", "https://www.reddit.com"),
			RedditPageSize:  getInt("REDDIT_PAGE_SIZE", 100),
			RedditMaxPages:  getInt("REDDIT_MAX_PAGES", 20),
			RedditLimit:     getInt("REDDIT_LIMIT", 100),
			RSSLimitPerFeed: getInt("RSS_LIMIT_PER_FEED", 50),
		},
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", ""),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "club-pulse"),
		KafkaBrokers:       splitAndTrim(getEnv("KAFKA_BROKERS", kafkaFallback)),
		EventsTopic:        getEnv("KAFKA_EVENTS_TOPIC", "club_pulse_batches"),
	}

	if c.DataDir == "" {
		return Common{}, fmt.Errorf("DATA_DIR must not be empty")
	}
	if c.Fetch.Timeout <= 0 {
		return Common{}, fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	if c.Fetch.RetryAttempts < 0 {
		return Common{}, fmt.Errorf("FETCH_RETRY_ATTEMPTS cannot be negative")
	}
	if c.Fetch.RequestInterval < 0 {
		return Common{}, fmt.Errorf("FETCH_REQUEST_INTERVAL cannot be negative")
	}
	if c.Fetch.RedditPageSize <= 0 || c.Fetch.RedditPageSize > 100 {
		return Common{}, fmt.Errorf("REDDIT_PAGE_SIZE must be between 1 and 100")
	}
	if c.Fetch.RedditMaxPages <= 0 {
		return Common{}, fmt.Errorf("REDDIT_MAX_PAGES must be positive")
	}
	if c.Fetch.RedditLimit <= 0 {
		return Common{}, fmt.Errorf("REDDIT_LIMIT must be positive")
	}
	if c.Fetch.RSSLimitPerFeed <= 0 {
		return Common{}, fmt.Errorf("RSS_LIMIT_PER_FEED must be positive")
	}
	if c.ScorerWorkers < 0 {
		return Common{}, fmt.Errorf("SCORER_WORKERS cannot be negative")
	}
	if c.ElasticsearchAddr != "" && c.ElasticsearchIndex == "" {
		return Common{}, fmt.Errorf("ELASTICSEARCH_INDEX must be set when ELASTICSEARCH_ADDR is")
	}
	if len(c.KafkaBrokers) > 0 && c.EventsTopic == "" {
		return Common{}, fmt.Errorf("KAFKA_EVENTS_TOPIC must be set when KAFKA_BROKERS is")
	}

	return c, nil
}

// LoadAnalyzer builds the CLI config from environment variables.
func LoadAnalyzer() (*Analyzer, error) {
	common, err := loadCommon("")
	if err != nil {
		return nil, err
	}
	return &Analyzer{Common: common}, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	common, err := loadCommon("")
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:         common,
		BindAddr:       getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage:    getInt("API_PAGE_SIZE", 20),
		MaxPage:        getInt("API_MAX_PAGE_SIZE", 100),
		MaxUploadBytes: int64(getInt("API_MAX_UPLOAD_BYTES", 10<<20)),
		RequestTimeout: getDuration("API_REQUEST_TIMEOUT", "3m"),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}
	if c.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("API_MAX_UPLOAD_BYTES must be positive")
	}
	if c.RequestTimeout <= 0 {
		return nil, fmt.Errorf("API_REQUEST_TIMEOUT must be positive")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	common, err := loadCommon("kafka:9092")
	if err != nil {
		return nil, err
	}

	c := &Worker{
		Common:         common,
		KafkaTopic:     getEnv("KAFKA_TOPIC", "club_pulse_runs"),
		KafkaConsumer:  getEnv("KAFKA_CONSUMER_GROUP", "club-pulse-worker"),
		DedupeCapacity: getInt("WORKER_DEDUPE_CAPACITY", 1000),
		DedupeTTL:      getDuration("WORKER_DEDUPE_TTL", "1h"),
		QueueCapacity:  getInt("WORKER_QUEUE_CAPACITY", 10),
		RunTimeout:     getDuration("WORKER_RUN_TIMEOUT", "5m"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.KafkaTopic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	if c.QueueCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_QUEUE_CAPACITY must be positive")
	}
	if c.RunTimeout <= 0 {
		return nil, fmt.Errorf("WORKER_RUN_TIMEOUT must be positive")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "club-pulse"),
		Interval:           getDuration("RETENTION_CRON", "24h"),
		MaxAge:             getDuration("RETENTION_MAX_AGE", "720h"),
		BatchSize:          getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_CRON must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
