package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaoheixi/crypto-screener/internal/infrastructure"
)

func newTestOTelMiddleware(t *testing.T, tracing bool) *OTelMiddleware {
	t.Helper()

	cfg := infrastructure.DefaultOTelConfig()
	cfg.EnableTracing = tracing
	providers, err := infrastructure.InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { providers.Shutdown(context.Background()) })

	mw, err := NewOTelMiddleware(providers)
	require.NoError(t, err)
	return mw
}

func TestOTelMiddlewarePassesThrough(t *testing.T) {
	mw := newTestOTelMiddleware(t, false)
	require.NotNil(t, mw.Metrics())

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/market/records", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestOTelMiddlewareTraceCorrelation(t *testing.T) {
	mw := newTestOTelMiddleware(t, true)

	var traceID string
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = infrastructure.GetTraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/market/records", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, traceID)
	assert.Equal(t, http.StatusOK, rec.Code)
}
