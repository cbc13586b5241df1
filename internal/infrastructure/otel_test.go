package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOTelLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestOTelInitialization tests OpenTelemetry initialization
func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(nil, testOTelLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	// Metrics are on by default, tracing is opt-in
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.Tracer)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = providers.Shutdown(ctx)
	assert.NoError(t, err)
}

// TestOTelTracingEnabled tests initialization with tracing turned on
func TestOTelTracingEnabled(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true

	providers, err := InitializeOTel(cfg, testOTelLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
}

// TestOTelUnsupportedExporters tests exporter validation
func TestOTelUnsupportedExporters(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.MetricExporter = "statsd"

	_, err := InitializeOTel(cfg, testOTelLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported metric exporter")

	cfg = DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "jaeger"

	_, err = InitializeOTel(cfg, testOTelLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

// TestPrometheusEndpoint tests the Prometheus scrape handler
func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), testOTelLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateScreenerMetrics(providers.Meter)
	require.NoError(t, err)

	metrics.RefreshesTotal.Add(context.Background(), 1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

// TestScreenerMetrics tests application metrics creation
func TestScreenerMetrics(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), testOTelLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateScreenerMetrics(providers.Meter)
	require.NoError(t, err)
	require.NotNil(t, metrics)

	// Verify HTTP metrics
	assert.NotNil(t, metrics.HTTPRequestsTotal)
	assert.NotNil(t, metrics.HTTPRequestDuration)
	assert.NotNil(t, metrics.HTTPActiveRequests)

	// Verify market batch metrics
	assert.NotNil(t, metrics.RefreshesTotal)
	assert.NotNil(t, metrics.RefreshDuration)
	assert.NotNil(t, metrics.BatchRecords)
	assert.NotNil(t, metrics.RecordsDroppedTotal)

	// Verify export metrics
	assert.NotNil(t, metrics.ExportsTotal)
}
