package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xiaoheixi/crypto-screener/internal/config"
	"github.com/xiaoheixi/crypto-screener/internal/dataprocessing"
	"github.com/xiaoheixi/crypto-screener/internal/exporter"
	"github.com/xiaoheixi/crypto-screener/internal/fetch"
	"github.com/xiaoheixi/crypto-screener/internal/infrastructure"
	"github.com/xiaoheixi/crypto-screener/internal/services"
	"github.com/xiaoheixi/crypto-screener/pkg/contracts/domain"
)

func main() {
	currency := flag.String("currency", "", "quote currency (defaults to first configured)")
	sortKey := flag.String("sort", "rank", "sort column")
	sortDir := flag.String("dir", "asc", "sort direction: asc | desc")
	out := flag.String("out", "", "output directory (defaults to configured export dir)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// One-shot run, no background refresh loop
	cfg.Market.RefreshInterval = 0

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}

	if *currency == "" {
		*currency = cfg.Market.Currencies[0]
	}
	if *out != "" {
		cfg.Export.Dir = *out
	}

	key := dataprocessing.SortKey(*sortKey)
	if !key.Valid() {
		logger.Error("Unknown sort column", slog.String("sort", *sortKey))
		os.Exit(1)
	}
	dir := domain.SortDirection(*sortDir)
	if !dir.Valid() {
		logger.Error("Invalid sort direction", slog.String("dir", *sortDir))
		os.Exit(1)
	}

	client := fetch.NewClient(cfg.Market.BaseURL,
		fetch.WithTimeout(cfg.Market.FetchTimeout),
		fetch.WithPerPage(cfg.Market.PerPage),
		fetch.WithLogger(logger),
	)

	service, err := services.NewMarketService(cfg.Market, client, client, logger, nil)
	if err != nil {
		logger.Error("Failed to create market service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Market.FetchTimeout)
	defer cancel()

	if _, err := service.Refresh(ctx, *currency); err != nil {
		logger.Error("Fetch failed",
			slog.String("currency", *currency),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	state := dataprocessing.SortState{Key: key, Direction: dir}
	export, err := service.ExportCSV(ctx, *currency, state, cfg.Export.Prefix)
	if err != nil {
		logger.Error("Export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Match the download filename convention, currency included
	cfg.Export.Prefix = fmt.Sprintf("%s_%s", cfg.Export.Prefix, *currency)
	writer := exporter.NewFileWriter(cfg.Export, logger)
	path, err := writer.Write(export.Content, time.Now())
	if err != nil {
		logger.Error("Write failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println(path)
}
