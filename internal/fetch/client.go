package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xiaoheixi/crypto-screener/internal/dataprocessing"
)

// APIError represents an error response from the market data API
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market api error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client provides access to a CoinGecko-compatible REST API
type Client struct {
	baseURL    string
	perPage    int
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// NewClient creates a new market data client
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		perPage: 200,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithPerPage sets the number of records requested per batch
func WithPerPage(n int) ClientOption {
	return func(c *Client) {
		c.perPage = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.With(slog.String("component", "fetch_client"))
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Markets fetches one batch of raw market records for a quote currency.
// The records come back loosely typed; normalization is the caller's job.
func (c *Client) Markets(ctx context.Context, currency string) ([]dataprocessing.RawRecord, error) {
	query := url.Values{}
	query.Set("vs_currency", currency)
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(c.perPage))
	query.Set("price_change_percentage", "24h,7d,30d,1y")

	var raws []dataprocessing.RawRecord
	if err := c.get(ctx, "/coins/markets", query, &raws); err != nil {
		return nil, fmt.Errorf("fetch markets for %s: %w", currency, err)
	}

	c.logger.DebugContext(ctx, "fetched market batch",
		slog.String("currency", currency),
		slog.Int("records", len(raws)))

	return raws, nil
}

// coinDetail is the subset of the per-coin payload used for enrichment
type coinDetail struct {
	Categories []string `json:"categories"`
}

// Category fetches the primary category label for a coin. An empty label
// with a nil error means the coin simply has no category.
func (c *Client) Category(ctx context.Context, id string) (string, error) {
	query := url.Values{}
	query.Set("localization", "false")
	query.Set("tickers", "false")
	query.Set("market_data", "false")

	var detail coinDetail
	if err := c.get(ctx, "/coins/"+url.PathEscape(id), query, &detail); err != nil {
		return "", fmt.Errorf("fetch coin detail for %s: %w", id, err)
	}

	for _, category := range detail.Categories {
		if category != "" {
			return category, nil
		}
	}
	return "", nil
}

// get performs a GET request and decodes the JSON response
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
