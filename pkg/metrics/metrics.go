// Package metrics exposes Prometheus instruments for the agent's core loops.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ambient"

var (
	// ModelCalls counts model calls by tier and result (ok, error, rate_limited).
	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Total model calls by tier and result",
		},
		[]string{"tier", "result"},
	)

	// ModelLatency tracks model call latency by tier.
	ModelLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_latency_seconds",
			Help:      "Model call latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"tier"},
	)

	// ModelTokens counts tokens by tier and type (input, output).
	ModelTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_tokens_total",
			Help:      "Total tokens consumed by tier and type",
		},
		[]string{"tier", "type"},
	)

	// Consolidations counts consolidation runs by trigger and result
	// (applied, parse_failure, error).
	Consolidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consolidations_total",
			Help:      "Total consolidation runs by trigger and result",
		},
		[]string{"trigger", "result"},
	)

	// DocumentsWritten counts memory document replacements by document.
	DocumentsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_written_total",
			Help:      "Total memory document replacements by document",
		},
		[]string{"document"},
	)

	// ConsolidationWait tracks time spent queued for the consolidation section.
	ConsolidationWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "consolidation_wait_seconds",
			Help:      "Time spent waiting to enter the consolidation section",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)

	// AutonomyCycles counts scheduler cycles by outcome (quiet_hours,
	// parse_failure, no_message, cooldown, quota, no_recipients, sent,
	// delivery_failed, error).
	AutonomyCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autonomy_cycles_total",
			Help:      "Total autonomy cycles by outcome",
		},
		[]string{"outcome"},
	)

	// Deliveries counts outbound deliveries by kind (reply, outreach) and result.
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total outbound deliveries by kind and result",
		},
		[]string{"kind", "result"},
	)

	// ActiveSessions tracks the number of in-memory sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Number of tracked conversation sessions",
		},
	)
)

// RecordModelCall records the result and latency of a model call.
func RecordModelCall(tier, result string, latency time.Duration) {
	ModelCalls.WithLabelValues(tier, result).Inc()
	ModelLatency.WithLabelValues(tier).Observe(latency.Seconds())
}

// RecordTokens records token usage for a model call.
func RecordTokens(tier string, input, output int64) {
	if input > 0 {
		ModelTokens.WithLabelValues(tier, "input").Add(float64(input))
	}
	if output > 0 {
		ModelTokens.WithLabelValues(tier, "output").Add(float64(output))
	}
}
