// Package metrics provides Prometheus metrics for the scoring engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager holds all Prometheus collectors for the engine.
type Manager struct {
	registry prometheus.Registerer

	// Attempt pipeline
	attemptsRecorded prometheus.Counter
	attemptsRejected *prometheus.CounterVec
	attemptLatency   prometheus.Histogram

	// Rank materialization
	rankRecomputes       *prometheus.CounterVec
	rankRecomputeErrors  prometheus.Counter
	rankRecomputeLatency prometheus.Histogram

	// Recompute queue and workers
	queueDepth    prometheus.Gauge
	queueCapacity prometheus.Gauge
	workerErrors  prometheus.Counter

	// Leaderboard cache
	cacheRebuilds      prometheus.Counter
	cacheRebuildMillis prometheus.Histogram

	// Snapshot archiver
	snapshotsCreated *prometheus.CounterVec
	snapshotRows     prometheus.Counter

	// Population
	participants prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithRegistry sets a custom Prometheus registerer.
func WithRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// Global manager on a custom registry, so default Go collectors stay out of
// the scrape output.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton metrics registry

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// NewManager creates a Manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		registry: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)
	ns := "quizrush"

	m.attemptsRecorded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "attempts_recorded_total",
		Help: "Attempts accepted and scored.",
	})
	m.attemptsRejected = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "attempts_rejected_total",
		Help: "Attempts rejected, by error code.",
	}, []string{"reason"})
	m.attemptLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns, Name: "attempt_latency_ms",
		Help:    "End-to-end attempt recording latency in milliseconds.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	m.rankRecomputes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "rank_recomputes_total",
		Help: "Full rank recomputations, by trigger mode.",
	}, []string{"mode"})
	m.rankRecomputeErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "rank_recompute_errors_total",
		Help: "Rank recomputations that failed and were rolled back.",
	})
	m.rankRecomputeLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns, Name: "rank_recompute_latency_ms",
		Help:    "Rank recomputation latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	m.queueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "recompute_queue_depth",
		Help: "Scopes currently waiting for a deferred rank recomputation.",
	})
	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "recompute_queue_capacity",
		Help: "Configured capacity of the recompute queue.",
	})
	m.workerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "recompute_worker_errors_total",
		Help: "Errors observed by recompute workers.",
	})

	m.cacheRebuilds = factory.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "cache_rebuilds_total",
		Help: "Leaderboard cache scope rebuilds from the primary store.",
	})
	m.cacheRebuildMillis = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: ns, Name: "cache_rebuild_latency_ms",
		Help:    "Leaderboard cache rebuild latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
	})

	m.snapshotsCreated = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "snapshots_created_total",
		Help: "Leaderboard snapshots archived, by type.",
	}, []string{"type"})
	m.snapshotRows = factory.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Name: "snapshot_rows_total",
		Help: "Rows written into the snapshot archive.",
	})

	m.participants = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: ns, Name: "participants_total",
		Help: "Users participating in the global ranking.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Name: "http_requests_total",
		Help: "HTTP requests, by endpoint, method, and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Name: "http_request_duration_ms",
		Help:    "HTTP request latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"endpoint", "method", "status"})

	return m
}

// Package-level helpers against the global manager.

func RecordAttempt() { globalManager.attemptsRecorded.Inc() }
func RecordAttemptRejected(code string) {
	globalManager.attemptsRejected.WithLabelValues(code).Inc()
}
func RecordAttemptLatency(ms float64) { globalManager.attemptLatency.Observe(ms) }

func RecordRankRecompute(mode string) { globalManager.rankRecomputes.WithLabelValues(mode).Inc() }
func RecordRankRecomputeError()       { globalManager.rankRecomputeErrors.Inc() }
func RecordRankRecomputeLatency(ms float64) {
	globalManager.rankRecomputeLatency.Observe(ms)
}

func UpdateQueueDepth(n int)    { globalManager.queueDepth.Set(float64(n)) }
func UpdateQueueCapacity(n int) { globalManager.queueCapacity.Set(float64(n)) }
func RecordWorkerError()        { globalManager.workerErrors.Inc() }

func RecordCacheRebuild() { globalManager.cacheRebuilds.Inc() }
func RecordCacheRebuildLatency(ms float64) { globalManager.cacheRebuildMillis.Observe(ms) }

func RecordSnapshot(snapshotType string) {
	globalManager.snapshotsCreated.WithLabelValues(snapshotType).Inc()
}
func RecordSnapshotRows(n int) { globalManager.snapshotRows.Add(float64(n)) }

func UpdateParticipants(n int) { globalManager.participants.Set(float64(n)) }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}
func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}
