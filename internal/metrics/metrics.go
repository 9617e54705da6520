package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Score engine metrics
	ScoreCalculationsTotal   prometheus.CounterVec // labels: entity_type, outcome ("hit", "computed", "error")
	ScoreCalculationDuration prometheus.HistogramVec
	ComponentDuration        prometheus.HistogramVec // labels: component

	// Learning pipeline metrics
	LearningRunsTotal    prometheus.CounterVec
	LearningRunDuration  prometheus.Histogram
	ExpiredScoresDeleted prometheus.Counter

	// Response cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			ScoreCalculationsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "personalization_score_calculations_total",
					Help: "Score requests by entity type and cache outcome",
				},
				[]string{"entity_type", "outcome"},
			),
			ScoreCalculationDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "personalization_score_calculation_seconds",
					Help:    "Latency of full score computations (cache misses only)",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"entity_type"},
			),
			ComponentDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "personalization_component_seconds",
					Help:    "Latency of individual score component computations",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
				},
				[]string{"component"},
			),
			LearningRunsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "personalization_learning_runs_total",
					Help: "Preference learning runs by outcome",
				},
				[]string{"outcome"},
			),
			LearningRunDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "personalization_learning_run_seconds",
					Help:    "Latency of full profile learning runs",
					Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
				},
			),
			ExpiredScoresDeleted: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "personalization_expired_scores_deleted_total",
					Help: "Rows removed by the expired-score cleanup sweep",
				},
			),
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "response_cache_hits_total",
					Help: "Redis response cache hits",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "response_cache_misses_total",
					Help: "Redis response cache misses",
				},
				[]string{"cache"},
			),
			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Application errors by component",
				},
				[]string{"component"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}
