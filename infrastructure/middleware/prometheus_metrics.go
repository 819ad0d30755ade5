// Package middleware provides cross-cutting adapters for the results
// engine: metrics collection and preview rate limiting.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bandwagonhq/podium/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks how results are served (live preview vs frozen
// snapshot), finalization activity, and request latency.
type PrometheusMetrics struct {
	resultsServed  *prometheus.CounterVec
	finalizations  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	systemGauges   *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// its metrics with the given registerer. Pass prometheus.DefaultRegisterer
// in production; tests use a fresh registry to avoid duplicate
// registration panics.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		resultsServed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "podium_results_served_total",
				Help: "Result sets served, by source (live preview or frozen snapshot).",
			},
			[]string{"source"},
		),
		finalizations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "podium_finalizations_total",
				Help: "Events frozen into durable results, by rule-set.",
			},
			[]string{"rule_set"},
		),
		requestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "podium_operation_duration_seconds",
				Help:    "Execution time of results engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "source"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "podium_system_state",
				Help: "Current state values for the results engine.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	source, ok := labels["source"]
	if !ok {
		source = "unknown"
	}
	pm.requestLatency.WithLabelValues(operation, source).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "results_served_total":
		source, ok := labels["source"]
		if !ok {
			source = "unknown"
		}
		pm.resultsServed.WithLabelValues(source).Add(value)
	case "finalizations_total":
		ruleSet, ok := labels["rule_set"]
		if !ok {
			ruleSet = "unknown"
		}
		pm.finalizations.WithLabelValues(ruleSet).Add(value)
	default:
		pm.systemGauges.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, _ map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// Compile-time verification that PrometheusMetrics implements
// MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
