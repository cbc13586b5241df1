package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/xiaoheixi/crypto-screener/internal/config"
	apierrors "github.com/xiaoheixi/crypto-screener/internal/errors"
	"github.com/xiaoheixi/crypto-screener/internal/fetch"
	"github.com/xiaoheixi/crypto-screener/internal/infrastructure"
	custommiddleware "github.com/xiaoheixi/crypto-screener/internal/middleware"
	"github.com/xiaoheixi/crypto-screener/internal/services"
	handlers "github.com/xiaoheixi/crypto-screener/internal/transport/http"
)

const AppName = "Crypto Screener"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	MarketService *services.MarketService
	HealthService *services.HealthService
	Logger        *slog.Logger
	OTel          *infrastructure.OTelProviders

	otelMiddleware *custommiddleware.OTelMiddleware
	refreshCancel  context.CancelFunc
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("upstream", cfg.Market.BaseURL),
		slog.Any("currencies", cfg.Market.Currencies))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	otelMW, err := custommiddleware.NewOTelMiddleware(otelProviders)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry middleware: %w", err)
	}

	client := fetch.NewClient(cfg.Market.BaseURL,
		fetch.WithTimeout(cfg.Market.FetchTimeout),
		fetch.WithPerPage(cfg.Market.PerPage),
		fetch.WithLogger(logger),
	)

	marketService, err := services.NewMarketService(cfg.Market, client, client, logger, otelMW.Metrics())
	if err != nil {
		return nil, fmt.Errorf("failed to create market service: %w", err)
	}

	app := &Application{
		Config:        cfg,
		MarketService: marketService,
		HealthService: services.NewHealthService(marketService),
		Logger:        logger,
		OTel:          otelProviders,

		otelMiddleware: otelMW,
	}

	app.setupRouter()

	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      app.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	r.Use(custommiddleware.RealIP)
	r.Use(custommiddleware.StructuredLogger(a.Logger))
	if a.otelMiddleware != nil {
		r.Use(a.otelMiddleware.Handler)
	}
	r.Use(custommiddleware.Recoverer(a.Logger))

	if a.Config.Security.RateLimit.Enabled {
		limiter := custommiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		)
		r.Use(limiter.Handler)
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	marketHandler := handlers.NewMarketHandler(
		a.MarketService,
		a.Logger,
		errorHandler,
		a.Config.Market.Currencies[0],
		a.Config.Export.Prefix,
	)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Mount("/market", marketHandler.Routes())
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
	})

	if a.OTel != nil && a.OTel.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTel.PrometheusHTTP)
	}

	a.Router = r
}

// Start begins serving requests and runs the background refresh loop
func (a *Application) Start(ctx context.Context) error {
	refreshCtx, cancel := context.WithCancel(context.Background())
	a.refreshCancel = cancel
	go a.MarketService.Run(refreshCtx)

	a.Logger.InfoContext(ctx, "HTTP server listening",
		slog.String("addr", a.Server.Addr))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("HTTP server failed", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	if a.refreshCancel != nil {
		a.refreshCancel()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTel != nil {
		if err := a.OTel.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	infrastructure.CloseLogFile()

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx); err != nil {
		return err
	}

	<-sigChan
	a.Logger.InfoContext(ctx, "Received interrupt signal")

	// Give in-flight requests a moment before tearing down
	time.Sleep(100 * time.Millisecond)

	return a.Stop(ctx)
}
