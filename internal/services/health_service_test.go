package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaoheixi/crypto-screener/internal/dataprocessing"
)

func TestHealthService_HealthCheck(t *testing.T) {
	source := &stubSource{raws: map[string][]dataprocessing.RawRecord{"usd": rawMarkets()}}
	market := newTestService(t, source, nil)
	health := NewHealthService(market)

	status := health.HealthCheck(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.NotEmpty(t, status.Version)
	assert.NotNil(t, status.Runtime)
	assert.Empty(t, status.Batches)

	_, err := market.Refresh(context.Background(), "usd")
	require.NoError(t, err)

	status = health.HealthCheck(context.Background())
	assert.Equal(t, 3, status.Batches["usd"])
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	source := &stubSource{raws: map[string][]dataprocessing.RawRecord{"usd": rawMarkets()}}
	market := newTestService(t, source, nil)
	health := NewHealthService(market)

	status := health.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status, "no batch loaded yet")

	_, err := market.Refresh(context.Background(), "usd")
	require.NoError(t, err)

	status = health.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)
}

func TestHealthService_Version(t *testing.T) {
	market := newTestService(t, &stubSource{}, nil)
	health := NewHealthService(market)

	info := health.Version()
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["go_version"])
}
