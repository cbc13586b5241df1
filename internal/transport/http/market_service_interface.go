package http

import (
	"context"

	"github.com/xiaoheixi/crypto-screener/internal/dataprocessing"
	"github.com/xiaoheixi/crypto-screener/internal/services"
	"github.com/xiaoheixi/crypto-screener/pkg/contracts/domain"
)

// MarketServiceInterface defines the market operations the handlers need
type MarketServiceInterface interface {
	SupportedCurrency(currency string) bool
	Refresh(ctx context.Context, currency string) (*domain.Batch, error)
	Records(ctx context.Context, currency string, state dataprocessing.SortState) (*services.RecordsView, error)
	Buckets(ctx context.Context, currency string) (*services.BucketsView, error)
	ExportCSV(ctx context.Context, currency string, state dataprocessing.SortState, prefix string) (*services.Export, error)
}
