package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// testMetrics provides a global instance to avoid duplicate metric
// registration issues across tests in the same package: promauto uses
// the global registry, so a second NewPrometheusMetrics would panic.
var testMetrics = NewPrometheusMetrics()

func TestPrometheusMetricsRecording(t *testing.T) {
	testMetrics.RecordOperation("submit", "success")
	testMetrics.RecordOperation("submit", "success")
	testMetrics.RecordOperation("submit", "error")
	testMetrics.RecordLatency("submit", 25*time.Millisecond)
	testMetrics.RecordGauge("standings_size", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(
		testMetrics.operationCounter.WithLabelValues("submit", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		testMetrics.operationCounter.WithLabelValues("submit", "error")))
	assert.Equal(t, 7.0, testutil.ToFloat64(
		testMetrics.stateGauges.WithLabelValues("standings_size")))

	// One labeled series exists for the observed operation.
	assert.Equal(t, 1, testutil.CollectAndCount(testMetrics.operationLatency))
}

func TestPrometheusMetricsGaugeOverwrites(t *testing.T) {
	testMetrics.RecordGauge("active_round_submissions", 3)
	testMetrics.RecordGauge("active_round_submissions", 0)

	assert.Equal(t, 0.0, testutil.ToFloat64(
		testMetrics.stateGauges.WithLabelValues("active_round_submissions")))
}
