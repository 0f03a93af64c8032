package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Fetch metrics
	FetchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubpulse_fetch_requests_total",
			Help: "Upstream HTTP requests issued by fetchers",
		},
		[]string{"fetcher", "status"}, // status: success|error|retry
	)

	RecordsAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubpulse_records_accepted_total",
			Help: "Records written to a batch",
		},
		[]string{"batch"},
	)

	ItemsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubpulse_items_skipped_total",
			Help: "Raw items dropped before becoming records",
		},
		[]string{"fetcher", "reason"}, // reason: empty|irrelevant|duplicate|parse
	)

	// Pipeline metrics
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clubpulse_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"}, // stage: fetch|analyze|validate
	)

	StageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubpulse_stage_failures_total",
			Help: "Pipeline stage failures by error kind",
		},
		[]string{"stage", "kind"},
	)

	LabelShare = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clubpulse_label_share_percent",
			Help: "Share of each sentiment label in the latest analysis of a batch",
		},
		[]string{"batch", "label"},
	)

	ValidationAccuracy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clubpulse_validation_accuracy",
			Help: "Accuracy of the last validation run",
		},
	)
)

var once sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(FetchRequests)
		prometheus.MustRegister(RecordsAccepted)
		prometheus.MustRegister(ItemsSkipped)
		prometheus.MustRegister(StageDuration)
		prometheus.MustRegister(StageFailures)
		prometheus.MustRegister(LabelShare)
		prometheus.MustRegister(ValidationAccuracy)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveStage records how long a stage took since start.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
