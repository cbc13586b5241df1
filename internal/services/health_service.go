package services

import (
	"context"
	"runtime"
	"time"

	"github.com/xiaoheixi/crypto-screener/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	market    *MarketService
	startTime time.Time
}

// NewHealthService creates a new health service
func NewHealthService(market *MarketService) *HealthService {
	return &HealthService{
		market:    market,
		startTime: time.Now(),
	}
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Batches   map[string]int         `json:"batches"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
}

// HealthCheck reports liveness plus loaded-batch counts
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Batches:   s.market.Stats(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck reports whether at least one batch has been loaded
func (s *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := "ready"
	if len(s.market.Stats()) == 0 {
		status = "not_ready"
	}
	return HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Batches:   s.market.Stats(),
	}
}

// Version returns version information
func (s *HealthService) Version() map[string]string {
	return map[string]string{
		"version":    contracts.Version,
		"go_version": runtime.Version(),
	}
}
