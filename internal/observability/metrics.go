// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	SwapEventsAttributed prometheus.Counter
	SwapEventsDropped    *prometheus.CounterVec
	DuplicateDeliveries  prometheus.Counter
	MalformedFrames      prometheus.Counter

	// Referral metrics
	EdgesCreated   prometheus.Counter
	TicketsAwarded prometheus.Counter

	// Buffer metrics
	EventBufferSize  prometheus.Gauge
	HighestBlockSeen prometheus.Gauge

	// Latency metrics
	AttributionLatency prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulAttribution prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "referral_attribution"
	}

	return &Metrics{
		SwapEventsAttributed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "swap_events_attributed_total",
			Help:      "Total number of swap events fully attributed",
		}),
		SwapEventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "swap_events_dropped_total",
			Help:      "Total number of swap events dropped by reason",
		}, []string{"reason"}),
		DuplicateDeliveries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "duplicate_deliveries_total",
			Help:      "Total number of redelivered events skipped by dedupe",
		}),
		MalformedFrames: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "malformed_frames_total",
			Help:      "Total number of malformed or invalid events skipped",
		}),

		EdgesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "referral",
			Name:      "edges_created_total",
			Help:      "Total number of referral edges created",
		}),
		TicketsAwarded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "referral",
			Name:      "tickets_awarded_total",
			Help:      "Total number of lottery tickets awarded",
		}),

		EventBufferSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "event_buffer_size",
			Help:      "Current number of blocks in the event buffer",
		}),
		HighestBlockSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "highest_block_seen",
			Help:      "Highest block number seen",
		}),

		AttributionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "attribution_latency_seconds",
			Help:      "Per-event attribution latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulAttribution: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_attribution_timestamp",
			Help:      "Unix timestamp of the last successful attribution",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSwapAttributed increments the attributed counter and bumps the
// health timestamp.
func RecordSwapAttributed(unixNow int64) {
	DefaultMetrics.SwapEventsAttributed.Inc()
	DefaultMetrics.LastSuccessfulAttribution.Set(float64(unixNow))
}

// RecordSwapDropped increments the dropped counter for a reason.
func RecordSwapDropped(reason string) {
	DefaultMetrics.SwapEventsDropped.WithLabelValues(reason).Inc()
}

// RecordDuplicateDelivery increments the duplicate deliveries counter.
func RecordDuplicateDelivery() {
	DefaultMetrics.DuplicateDeliveries.Inc()
}

// RecordMalformedFrame increments the malformed frames counter.
func RecordMalformedFrame() {
	DefaultMetrics.MalformedFrames.Inc()
}

// RecordEdgeCreated increments the referral edges created counter.
func RecordEdgeCreated() {
	DefaultMetrics.EdgesCreated.Inc()
}

// RecordTicketsAwarded adds newly awarded tickets to the counter.
func RecordTicketsAwarded(tickets int64) {
	DefaultMetrics.TicketsAwarded.Add(float64(tickets))
}

// UpdateBufferSize updates the event buffer gauge.
func UpdateBufferSize(blocks int) {
	DefaultMetrics.EventBufferSize.Set(float64(blocks))
}

// UpdateHighestBlock updates the highest block seen gauge.
func UpdateHighestBlock(block int64) {
	DefaultMetrics.HighestBlockSeen.Set(float64(block))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
