package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerOperations counts ledger operations by name and outcome (committed, rejected, failed).
	LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribehub_ledger_operations_total",
		Help: "Total number of ledger operations by outcome",
	}, []string{"op", "outcome"})

	// LedgerOperationLatency records time spent holding the ledger lock per operation.
	LedgerOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tribehub_ledger_operation_latency_seconds",
		Help:    "Ledger operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// LedgerSequence is the last committed sequence number seen by this process.
	LedgerSequence = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tribehub_ledger_sequence",
		Help: "Last committed ledger sequence number",
	})

	// EventsJournaled counts journaled events by name.
	EventsJournaled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribehub_events_journaled_total",
		Help: "Total number of events appended to the journal",
	}, []string{"event"})

	// EventPublishFailures counts events that could not be fanned out to a sink.
	EventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribehub_event_publish_failures_total",
		Help: "Total number of event publish failures by sink",
	}, []string{"sink"})

	// WebSocketConnectionsTotal is the gauge of open event stream connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tribehub_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts events dropped for slow subscribers.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribehub_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribehub_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"result"})
)

// ObserveOperation records the outcome and latency of one ledger operation.
func ObserveOperation(op, outcome string, start time.Time) {
	LedgerOperations.WithLabelValues(op, outcome).Inc()
	LedgerOperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
