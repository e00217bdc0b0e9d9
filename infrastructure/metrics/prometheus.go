// Package metrics implements the metrics collector port with
// Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vcdesk/deckeval/internal/ports"
)

// PrometheusMetrics records pipeline and model-call metrics in the
// global Prometheus registry.
type PrometheusMetrics struct {
	latency  *prometheus.HistogramVec
	counters *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	gauges   *prometheus.GaugeVec
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates the collector and registers its metric
// families. Call once per process.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deckeval_operation_duration_seconds",
				Help:    "Latency of pipeline operations and model calls.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "provider", "model", "status"},
		),
		counters: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deckeval_operations_total",
				Help: "Counts of pipeline operations by status.",
			},
			[]string{"operation", "provider", "model", "status"},
		),
		tokens: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deckeval_llm_tokens_total",
				Help: "Token usage across model calls.",
			},
			[]string{"provider", "model", "token_type"},
		),
		gauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deckeval_state",
				Help: "Current state values, e.g. batch progress.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records an operation duration.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.latency.WithLabelValues(
		operation,
		labelOr(labels, "provider"),
		labelOr(labels, "model"),
		labelOr(labels, "status"),
	).Observe(duration.Seconds())
}

// RecordCounter increments a counter. Token counters route to the
// dedicated token family.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	if metric == "llm_tokens_total" {
		pm.tokens.WithLabelValues(
			labelOr(labels, "provider"),
			labelOr(labels, "model"),
			labelOr(labels, "token_type"),
		).Add(value)
		return
	}
	pm.counters.WithLabelValues(
		metric,
		labelOr(labels, "provider"),
		labelOr(labels, "model"),
		labelOr(labels, "status"),
	).Add(value)
}

// RecordGauge sets a gauge value.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, _ map[string]string) {
	pm.gauges.WithLabelValues(metric).Set(value)
}

func labelOr(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok {
		return v
	}
	return "unknown"
}
