// Package middleware provides cross-cutting concerns for the contest
// engine: metrics collection and operation throttling.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gridrival/podium/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements
// MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of operation volume,
// latency, and engine state sizes.
type PrometheusMetrics struct {
	operationCounter *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	stateGauges      *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "podium_engine_operations_total",
				Help: "Total number of engine operations by outcome.",
			},
			[]string{"operation", "status"},
		),
		operationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "podium_engine_operation_duration_seconds",
				Help:    "Execution time of engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		stateGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "podium_engine_state",
				Help: "Current engine state sizes, such as submissions in the active round.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration) {
	pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordOperation implements the MetricsCollector interface by counting
// completed operations per outcome.
func (pm *PrometheusMetrics) RecordOperation(operation, status string) {
	pm.operationCounter.WithLabelValues(operation, status).Inc()
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64) {
	pm.stateGauges.WithLabelValues(metric).Set(value)
}
