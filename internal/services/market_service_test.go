package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xiaoheixi/crypto-screener/internal/config"
	"github.com/xiaoheixi/crypto-screener/internal/infrastructure"
	"github.com/xiaoheixi/crypto-screener/internal/dataprocessing"
	"github.com/xiaoheixi/crypto-screener/internal/fetch"
	"github.com/xiaoheixi/crypto-screener/pkg/contracts/domain"
)

// stubSource returns canned raw records per currency
type stubSource struct {
	mu    sync.Mutex
	raws  map[string][]dataprocessing.RawRecord
	err   error
	calls int
}

func (s *stubSource) Markets(ctx context.Context, currency string) ([]dataprocessing.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.raws[currency], nil
}

// stubEnricher returns a fixed category per coin id
type stubEnricher struct {
	categories map[string]string
}

func (s *stubEnricher) Category(ctx context.Context, id string) (string, error) {
	cat, ok := s.categories[id]
	if !ok {
		return "", errors.New("not found")
	}
	return cat, nil
}

func testMarketConfig() config.MarketConfig {
	return config.MarketConfig{
		BaseURL:       "http://localhost",
		Currencies:    []string{"usd", "eur"},
		PerPage:       100,
		FetchTimeout:  5 * time.Second,
		EnrichWorkers: 2,
		Locale:        "en",
	}
}

func rawMarkets() []dataprocessing.RawRecord {
	return []dataprocessing.RawRecord{
		{
			"id": "bitcoin", "name": "Bitcoin", "symbol": "btc",
			"market_cap_rank": float64(1), "current_price": float64(65000),
			"market_cap": float64(1.2e12), "total_volume": float64(3.5e10),
			"price_change_percentage_24h": float64(2.5),
		},
		{
			"id": "ethereum", "name": "Ethereum", "symbol": "eth",
			"market_cap_rank": float64(2), "current_price": float64(3100),
			"market_cap": float64(3.9e11), "total_volume": float64(1.8e10),
			"price_change_percentage_24h": float64(-1.2),
		},
		{
			"id": "newcoin", "name": "Newcoin", "symbol": "new",
			// unranked, no price yet
			"price_change_percentage_24h": float64(40),
		},
		{
			// no id, dropped at normalization
			"name": "Ghost", "symbol": "gho",
		},
	}
}

func newTestService(t *testing.T, source MarketSource, enricher *stubEnricher) *MarketService {
	t.Helper()
	// keep a typed-nil stub out of the interface value
	var e fetch.Enricher
	if enricher != nil {
		e = enricher
	}
	svc, err := NewMarketService(testMarketConfig(), source, e, testLogger(), nil)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMarketService_Refresh(t *testing.T) {
	source := &stubSource{raws: map[string][]dataprocessing.RawRecord{"usd": rawMarkets()}}
	enricher := &stubEnricher{categories: map[string]string{
		"bitcoin":  "Layer 1",
		"ethereum": "Smart Contract Platform",
	}}
	svc := newTestService(t, source, enricher)

	batch, err := svc.Refresh(context.Background(), "usd")
	require.NoError(t, err)

	assert.Equal(t, "usd", batch.Currency)
	assert.Len(t, batch.Records, 3, "record without id must be dropped")
	assert.Equal(t, 1, batch.Dropped)
	assert.Equal(t, svc.now(), batch.FetchedAt)

	byID := make(map[string]domain.MarketRecord)
	for _, r := range batch.Records {
		byID[r.ID] = r
	}
	assert.Equal(t, "Layer 1", byID["bitcoin"].Category)
	assert.Equal(t, "", byID["newcoin"].Category, "enrichment failure leaves category absent")
	assert.Nil(t, byID["newcoin"].Rank)
}

func TestMarketService_Refresh_UnknownCurrency(t *testing.T) {
	svc := newTestService(t, &stubSource{}, nil)

	_, err := svc.Refresh(context.Background(), "jpy")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestMarketService_Refresh_UpstreamFailure(t *testing.T) {
	source := &stubSource{err: errors.New("boom")}
	svc := newTestService(t, source, nil)

	_, err := svc.Refresh(context.Background(), "usd")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamFetch)
}

func TestMarketService_Refresh_ReplacesBatch(t *testing.T) {
	source := &stubSource{raws: map[string][]dataprocessing.RawRecord{"usd": rawMarkets()}}
	svc := newTestService(t, source, nil)

	_, err := svc.Refresh(context.Background(), "usd")
	require.NoError(t, err)

	source.mu.Lock()
	source.raws["usd"] = source.raws["usd"][:1]
	source.mu.Unlock()

	batch, err := svc.Refresh(context.Background(), "usd")
	require.NoError(t, err)
	assert.Len(t, batch.Records, 1, "new batch replaces the old one entirely")

	got, err := svc.Batch(context.Background(), "usd")
	require.NoError(t, err)
	assert.Same(t, batch, got)
}

func TestMarketService_Batch_NotLoaded(t *testing.T) {
	svc := newTestService(t, &stubSource{}, nil)

	_, err := svc.Batch(context.Background(), "eur")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestMarketService_Records_Sorted(t *testing.T) {
	source := &stubSource{raws: map[string][]dataprocessing.RawRecord{"usd": rawMarkets()}}
	svc := newTestService(t, source, nil)

	_, err := svc.Refresh(context.Background(), "usd")
	require.NoError(t, err)

	state := dataprocessing.SortState{Key: dataprocessing.SortByChange24h, Direction: domain.SortDescending}
	view, err := svc.Records(context.Background(), "usd", state)
	require.NoError(t, err)

	require.Len(t, view.Records, 3)
	assert.Equal(t, "newcoin", view.Records[0].ID)
	assert.Equal(t, "bitcoin", view.Records[1].ID)
	assert.Equal(t, "ethereum", view.Records[2].ID)
	assert.Equal(t, state, view.Sort)

	// The stored batch keeps its normalization order
	batch, err := svc.Batch(context.Background(), "usd")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", batch.Records[0].ID)
}

func TestMarketService_Buckets(t *testing.T) {
	source := &stubSource{raws: map[string][]dataprocessing.RawRecord{"usd": rawMarkets()}}
	svc := newTestService(t, source, nil)

	_, err := svc.Refresh(context.Background(), "usd")
	require.NoError(t, err)

	view, err := svc.Buckets(context.Background(), "usd")
	require.NoError(t, err)

	require.Len(t, view.Ranges, 2)
	majors := view.Buckets[view.Ranges[0].Name]
	require.Len(t, majors, 2)
	assert.Equal(t, "bitcoin", majors[0].ID)
	assert.Equal(t, "ethereum", majors[1].ID)
	assert.Empty(t, view.Buckets[view.Ranges[1].Name], "empty bucket still present")
}

func TestMarketService_ExportCSV(t *testing.T) {
	source := &stubSource{raws: map[string][]dataprocessing.RawRecord{"usd": rawMarkets()}}
	svc := newTestService(t, source, nil)

	_, err := svc.Refresh(context.Background(), "usd")
	require.NoError(t, err)

	state := dataprocessing.SortState{Key: dataprocessing.SortByRank, Direction: domain.SortAscending}
	export, err := svc.ExportCSV(context.Background(), "usd", state, "screener")
	require.NoError(t, err)

	assert.Equal(t, "screener_usd_2026-03-15.csv", export.Filename)
	lines := strings.Split(strings.TrimSuffix(export.Content, "\n"), "\n")
	require.Len(t, lines, 4, "header plus three records")
	assert.Contains(t, lines[0], "Rank,Name,Symbol")
	// unranked coin sorts as rank zero, so it leads ascending
	assert.Contains(t, lines[1], "\"Newcoin\"")
}

func TestMarketService_ExportCSV_EmptyBatch(t *testing.T) {
	source := &stubSource{raws: map[string][]dataprocessing.RawRecord{"usd": nil}}
	svc := newTestService(t, source, nil)

	_, err := svc.Refresh(context.Background(), "usd")
	require.NoError(t, err)

	state := dataprocessing.SortState{Key: dataprocessing.SortByRank, Direction: domain.SortDescending}
	_, err = svc.ExportCSV(context.Background(), "usd", state, "screener")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestMarketService_RefreshAll(t *testing.T) {
	source := &stubSource{raws: map[string][]dataprocessing.RawRecord{
		"usd": rawMarkets(),
		"eur": rawMarkets()[:1],
	}}
	svc := newTestService(t, source, nil)

	require.NoError(t, svc.RefreshAll(context.Background()))

	stats := svc.Stats()
	assert.Equal(t, 3, stats["usd"])
	assert.Equal(t, 1, stats["eur"])
}

func TestMarketService_SupportedCurrency(t *testing.T) {
	svc := newTestService(t, &stubSource{}, nil)

	assert.True(t, svc.SupportedCurrency("usd"))
	assert.True(t, svc.SupportedCurrency("USD"))
	assert.False(t, svc.SupportedCurrency("jpy"))
}

func TestMarketService_Refresh_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")
	metrics, err := infrastructure.CreateScreenerMetrics(meter)
	require.NoError(t, err)

	source := &stubSource{raws: map[string][]dataprocessing.RawRecord{"usd": rawMarkets()}}
	svc, err := NewMarketService(testMarketConfig(), source, nil, testLogger(), metrics)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.Refresh(ctx, "usd")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	got := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			got[m.Name] = true
		}
	}

	// one raw record has no id, so the dropped counter must fire too
	assert.True(t, got["market_refreshes_total"])
	assert.True(t, got["market_refresh_duration_seconds"])
	assert.True(t, got["market_batch_records"])
	assert.True(t, got["market_records_dropped_total"])
}
