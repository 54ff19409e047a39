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
	// Selection metrics
	FilterEvaluations *prometheus.CounterVec
	EligibleSetSize   prometheus.Histogram
	MutationsApplied  *prometheus.CounterVec

	// Execution metrics
	ExecOutcomes *prometheus.CounterVec
	ExecLatency  *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// RPC metrics
	RPCCallLatency   *prometheus.HistogramVec
	WSMessageLatency prometheus.Histogram

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "fulfillment_mutation_lab"
	}

	return &Metrics{
		// Selection metrics
		FilterEvaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "filter_evaluations_total",
			Help:      "Total number of eligibility filter evaluations by failure mode and verdict",
		}, []string{"failure_mode", "verdict"}),
		EligibleSetSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "eligible_set_size",
			Help:      "Number of eligible (failure mode, target) candidates per scenario",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		MutationsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "selection",
			Name:      "mutations_applied_total",
			Help:      "Total number of mutations applied by failure mode",
		}, []string{"failure_mode"}),

		// Execution metrics
		ExecOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "outcomes_total",
			Help:      "Total number of execution outcomes by entry point and status",
		}, []string{"entry_point", "status"}),
		ExecLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "latency_seconds",
			Help:      "Entry point execution latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entry_point"}),

		// Database metrics
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

		// RPC metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chainrpc",
			Name:      "call_latency_seconds",
			Help:      "Chain RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		WSMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chainrpc",
			Name:      "ws_message_latency_seconds",
			Help:      "WebSocket message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful mutation run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFilterEvaluation records one eligibility filter verdict.
func RecordFilterEvaluation(failureMode string, eligible bool) {
	verdict := "ineligible"
	if eligible {
		verdict = "eligible"
	}
	DefaultMetrics.FilterEvaluations.WithLabelValues(failureMode, verdict).Inc()
}

// RecordEligibleSetSize records the candidate count for one scenario.
func RecordEligibleSetSize(n int) {
	DefaultMetrics.EligibleSetSize.Observe(float64(n))
}

// RecordMutationApplied increments the applied-mutation counter.
func RecordMutationApplied(failureMode string) {
	DefaultMetrics.MutationsApplied.WithLabelValues(failureMode).Inc()
}

// RecordExecOutcome records one entry point execution.
func RecordExecOutcome(entryPoint, status string, seconds float64) {
	DefaultMetrics.ExecOutcomes.WithLabelValues(entryPoint, status).Inc()
	DefaultMetrics.ExecLatency.WithLabelValues(entryPoint).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}
