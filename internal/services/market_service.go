package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xiaoheixi/crypto-screener/internal/config"
	"github.com/xiaoheixi/crypto-screener/internal/dataprocessing"
	"github.com/xiaoheixi/crypto-screener/internal/exporter"
	"github.com/xiaoheixi/crypto-screener/internal/fetch"
	"github.com/xiaoheixi/crypto-screener/internal/infrastructure"
	"github.com/xiaoheixi/crypto-screener/pkg/contracts/domain"
)

// MarketSource delivers one finite batch of raw records per call
type MarketSource interface {
	Markets(ctx context.Context, currency string) ([]dataprocessing.RawRecord, error)
}

// MarketService owns the batch lifecycle: fetching, normalization,
// enrichment, and the sorted/partitioned/exported views over the current
// batch. A new batch replaces the previous one atomically per currency.
type MarketService struct {
	cfg      config.MarketConfig
	source   MarketSource
	enricher fetch.Enricher
	sorter   *dataprocessing.Sorter
	logger   *slog.Logger
	metrics  *infrastructure.ScreenerMetrics

	mu      sync.RWMutex
	batches map[string]*domain.Batch

	// now is swappable for tests
	now func() time.Time
}

// NewMarketService creates a market service. The enricher and metrics may
// be nil: records then keep their category absent, and refreshes go
// unmeasured.
func NewMarketService(cfg config.MarketConfig, source MarketSource, enricher fetch.Enricher, logger *slog.Logger, metrics *infrastructure.ScreenerMetrics) (*MarketService, error) {
	sorter, err := dataprocessing.NewSorter(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("create sorter: %w", err)
	}

	return &MarketService{
		cfg:      cfg,
		source:   source,
		enricher: enricher,
		sorter:   sorter,
		logger:   logger.With(slog.String("component", "market_service")),
		metrics:  metrics,
		batches:  make(map[string]*domain.Batch),
		now:      time.Now,
	}, nil
}

// SupportedCurrency reports whether the dashboard serves the currency
func (s *MarketService) SupportedCurrency(currency string) bool {
	return slices.Contains(s.cfg.Currencies, strings.ToLower(currency))
}

// Refresh fetches, normalizes, and enriches a new batch for the currency,
// then swaps it in as the current batch.
func (s *MarketService) Refresh(ctx context.Context, currency string) (*domain.Batch, error) {
	currency = strings.ToLower(currency)
	if !s.SupportedCurrency(currency) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	}

	start := time.Now()
	raws, err := s.source.Markets(ctx, currency)
	if err != nil {
		s.recordRefresh(ctx, currency, "failure", time.Since(start), 0, 0)
		return nil, fmt.Errorf("%w: %s", ErrUpstreamFetch, err)
	}

	records, dropped := dataprocessing.Normalize(raws)
	if dropped > 0 {
		s.logger.WarnContext(ctx, "dropped raw records during normalization",
			slog.String("currency", currency),
			slog.Int("dropped", dropped))
	}

	records = fetch.EnrichCategories(ctx, s.enricher, records, s.cfg.EnrichWorkers, s.logger)

	batch := &domain.Batch{
		Currency:  currency,
		FetchedAt: s.now(),
		Records:   records,
		Dropped:   dropped,
	}

	s.mu.Lock()
	s.batches[currency] = batch
	s.mu.Unlock()

	s.recordRefresh(ctx, currency, "success", time.Since(start), len(records), dropped)

	s.logger.InfoContext(ctx, "market batch refreshed",
		slog.String("currency", currency),
		slog.Int("records", len(records)),
		slog.Int("dropped", dropped))

	return batch, nil
}

// recordRefresh emits the per-refresh metrics when a meter is wired
func (s *MarketService) recordRefresh(ctx context.Context, currency, status string, duration time.Duration, records, dropped int) {
	if s.metrics == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("currency", currency),
		attribute.String("status", status),
	)
	s.metrics.RefreshesTotal.Add(ctx, 1, attrs)
	s.metrics.RefreshDuration.Record(ctx, duration.Seconds(), attrs)

	if status == "success" {
		currencyAttr := metric.WithAttributes(attribute.String("currency", currency))
		s.metrics.BatchRecords.Record(ctx, int64(records), currencyAttr)
		if dropped > 0 {
			s.metrics.RecordsDroppedTotal.Add(ctx, int64(dropped), currencyAttr)
		}
	}
}

// RefreshAll refreshes every configured currency, keeping going past
// individual failures and returning the last error seen.
func (s *MarketService) RefreshAll(ctx context.Context) error {
	var lastErr error
	for _, currency := range s.cfg.Currencies {
		if _, err := s.Refresh(ctx, currency); err != nil {
			s.logger.ErrorContext(ctx, "refresh failed",
				slog.String("currency", currency),
				slog.String("error", err.Error()))
			lastErr = err
		}
	}
	return lastErr
}

// Run drives periodic refreshes until the context is cancelled. It returns
// immediately when the refresh interval is zero.
func (s *MarketService) Run(ctx context.Context) {
	if s.cfg.RefreshInterval <= 0 {
		return
	}

	// Populate before the first tick
	if err := s.RefreshAll(ctx); err != nil {
		s.logger.WarnContext(ctx, "initial refresh incomplete", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshAll(ctx); err != nil {
				s.logger.WarnContext(ctx, "scheduled refresh incomplete", slog.String("error", err.Error()))
			}
		}
	}
}

// Batch returns the current batch for a currency
func (s *MarketService) Batch(ctx context.Context, currency string) (*domain.Batch, error) {
	currency = strings.ToLower(currency)
	if !s.SupportedCurrency(currency) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	}

	s.mu.RLock()
	batch, ok := s.batches[currency]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrBatchNotFound, currency)
	}
	return batch, nil
}

// RecordsView is one sorted table view over the current batch
type RecordsView struct {
	Currency  string                   `json:"currency"`
	FetchedAt time.Time                `json:"fetched_at"`
	Sort      dataprocessing.SortState `json:"sort"`
	Records   []domain.MarketRecord    `json:"records"`
}

// Records returns the current batch sorted per the view state
func (s *MarketService) Records(ctx context.Context, currency string, state dataprocessing.SortState) (*RecordsView, error) {
	batch, err := s.Batch(ctx, currency)
	if err != nil {
		return nil, err
	}

	return &RecordsView{
		Currency:  batch.Currency,
		FetchedAt: batch.FetchedAt,
		Sort:      state,
		Records:   s.sorter.Sort(batch.Records, state.Key, state.Direction),
	}, nil
}

// BucketsView is the rank-partitioned view over the current batch
type BucketsView struct {
	Currency  string                           `json:"currency"`
	FetchedAt time.Time                        `json:"fetched_at"`
	Ranges    []dataprocessing.RankRange       `json:"ranges"`
	Buckets   map[string][]domain.MarketRecord `json:"buckets"`
}

// Buckets partitions the current batch by the default rank ranges. The
// ranges are non-overlapping, so no record lands in two buckets; each
// bucket comes back sorted by rank ascending for display.
func (s *MarketService) Buckets(ctx context.Context, currency string) (*BucketsView, error) {
	batch, err := s.Batch(ctx, currency)
	if err != nil {
		return nil, err
	}

	ranges := dataprocessing.DefaultRanges(s.cfg.PerPage)
	buckets := dataprocessing.Partition(batch.Records, ranges)
	for name, records := range buckets {
		buckets[name] = s.sorter.Sort(records, dataprocessing.SortByRank, domain.SortAscending)
	}

	return &BucketsView{
		Currency:  batch.Currency,
		FetchedAt: batch.FetchedAt,
		Ranges:    ranges,
		Buckets:   buckets,
	}, nil
}

// Export is one CSV export of the current batch
type Export struct {
	Filename string
	Content  string
}

// ExportCSV serializes the current batch, sorted per the view state, using
// the default column set.
func (s *MarketService) ExportCSV(ctx context.Context, currency string, state dataprocessing.SortState, prefix string) (*Export, error) {
	view, err := s.Records(ctx, currency, state)
	if err != nil {
		return nil, err
	}

	blob, err := exporter.Marshal(view.Records, exporter.DefaultColumns(domain.Periods))
	if err != nil {
		// Zero records is "nothing to export", not a failure
		return nil, fmt.Errorf("%w for %s", ErrNothingToExport, currency)
	}

	if s.metrics != nil {
		s.metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("currency", currency)))
	}

	return &Export{
		Filename: exporter.Filename(fmt.Sprintf("%s_%s", prefix, currency), s.now()),
		Content:  blob,
	}, nil
}

// Stats summarizes loaded batches for health reporting
func (s *MarketService) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int, len(s.batches))
	for currency, batch := range s.batches {
		stats[currency] = len(batch.Records)
	}
	return stats
}
