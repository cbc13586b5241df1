package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/xiaoheixi/crypto-screener/internal/errors"
	"github.com/xiaoheixi/crypto-screener/internal/middleware"
	"github.com/xiaoheixi/crypto-screener/internal/services"
	"github.com/xiaoheixi/crypto-screener/pkg/contracts/domain"

	"github.com/xiaoheixi/crypto-screener/internal/dataprocessing"
)

// MarketHandler handles market data HTTP requests with RFC 7807 compliance
type MarketHandler struct {
	service         MarketServiceInterface
	logger          *slog.Logger
	errorHandler    *apierrors.ErrorHandler
	defaultCurrency string
	exportPrefix    string
}

// NewMarketHandler creates a new market handler with RFC 7807 error handling
func NewMarketHandler(service MarketServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, defaultCurrency, exportPrefix string) *MarketHandler {
	return &MarketHandler{
		service:         service,
		logger:          logger.With(slog.String("component", "market_handler")),
		errorHandler:    errorHandler,
		defaultCurrency: defaultCurrency,
		exportPrefix:    exportPrefix,
	}
}

// Routes returns the market routes with proper Chi patterns
func (h *MarketHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(h.CurrencyCtx)

	r.Get("/records", h.GetRecords)
	r.Get("/buckets", h.GetBuckets)
	r.Get("/export", h.ExportCSV)
	r.Post("/refresh", h.Refresh)

	return r
}

// CurrencyCtx middleware validates the currency query parameter
func (h *MarketHandler) CurrencyCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		currency := r.URL.Query().Get("currency")
		if currency == "" {
			next.ServeHTTP(w, r)
			return
		}

		if len(currency) > 10 || !h.service.SupportedCurrency(currency) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("currency",
				fmt.Sprintf("Unsupported currency: %s", currency)))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// currency resolves the effective currency for a request
func (h *MarketHandler) currency(r *http.Request) string {
	if c := r.URL.Query().Get("currency"); c != "" {
		return strings.ToLower(c)
	}
	return h.defaultCurrency
}

// sortState parses the sort and dir query parameters. Absent parameters
// fall back to the dashboard's initial view: rank ascending.
func sortState(r *http.Request) (dataprocessing.SortState, *apierrors.APIError) {
	state := dataprocessing.SortState{
		Key:       dataprocessing.SortByRank,
		Direction: domain.SortAscending,
	}

	if s := r.URL.Query().Get("sort"); s != "" {
		key := dataprocessing.SortKey(s)
		if !key.Valid() {
			return state, apierrors.ErrValidation("sort", fmt.Sprintf("Unknown sort key: %s", s))
		}
		state.Key = key
		if key != dataprocessing.SortByRank {
			// a freshly selected column sorts descending first
			state.Direction = domain.SortDescending
		}
	}

	if d := r.URL.Query().Get("dir"); d != "" {
		dir := domain.SortDirection(d)
		if !dir.Valid() {
			return state, apierrors.ErrValidation("dir", fmt.Sprintf("Invalid sort direction: %s", d))
		}
		state.Direction = dir
	}

	return state, nil
}

// GetRecords handles GET /api/market/records
func (h *MarketHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	state, apiErr := sortState(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	currency := h.currency(r)
	h.logger.InfoContext(r.Context(), "fetching records view",
		slog.String("request_id", reqID),
		slog.String("currency", currency),
		slog.String("sort", string(state.Key)),
		slog.String("dir", string(state.Direction)),
	)

	view, err := h.service.Records(r.Context(), currency, state)
	if err != nil {
		h.handleServiceError(w, r, err, currency)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
		"count":  len(view.Records),
	})
}

// GetBuckets handles GET /api/market/buckets
func (h *MarketHandler) GetBuckets(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	currency := h.currency(r)

	h.logger.InfoContext(r.Context(), "fetching buckets view",
		slog.String("request_id", reqID),
		slog.String("currency", currency),
	)

	view, err := h.service.Buckets(r.Context(), currency)
	if err != nil {
		h.handleServiceError(w, r, err, currency)
		return
	}

	count := 0
	for _, records := range view.Buckets {
		count += len(records)
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
		"count":  count,
	})
}

// ExportCSV handles GET /api/market/export as a file download
func (h *MarketHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	state, apiErr := sortState(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	currency := h.currency(r)
	h.logger.InfoContext(r.Context(), "exporting records",
		slog.String("request_id", reqID),
		slog.String("currency", currency),
		slog.String("sort", string(state.Key)),
	)

	export, err := h.service.ExportCSV(r.Context(), currency, state, h.exportPrefix)
	if err != nil {
		h.handleServiceError(w, r, err, currency)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(export.Content)); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()))
	}
}

// Refresh handles POST /api/market/refresh
func (h *MarketHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	currency := h.currency(r)

	h.logger.InfoContext(r.Context(), "refreshing market batch",
		slog.String("request_id", reqID),
		slog.String("currency", currency),
	)

	batch, err := h.service.Refresh(r.Context(), currency)
	if err != nil {
		h.handleServiceError(w, r, err, currency)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":     "success",
		"currency":   batch.Currency,
		"records":    len(batch.Records),
		"dropped":    batch.Dropped,
		"fetched_at": batch.FetchedAt,
	})
}

// handleServiceError maps service errors to API errors
func (h *MarketHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, currency string) {
	h.logger.ErrorContext(r.Context(), "market request failed",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("currency", currency),
		slog.String("error", err.Error()),
	)

	switch {
	case errors.Is(err, services.ErrUnknownCurrency):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("currency",
			fmt.Sprintf("Unsupported currency: %s", currency)))
	case errors.Is(err, services.ErrBatchNotFound):
		h.errorHandler.HandleError(w, r, apierrors.ErrBatchNotFound)
	case errors.Is(err, services.ErrNothingToExport):
		h.errorHandler.HandleError(w, r, apierrors.ErrNothingToExport)
	case errors.Is(err, services.ErrUpstreamFetch):
		h.errorHandler.HandleError(w, r, apierrors.UpstreamError(err))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
