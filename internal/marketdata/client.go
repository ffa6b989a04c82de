// Package marketdata wraps the external Indian Stock API behind a
// uniform result envelope and a short-lived read-through cache. It is
// the only boundary the scoring and contest layers depend on for
// live market data.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stockfantasy/contest-engine/internal/metrics"
)

// DefaultBaseURL is the upstream market-data API.
const DefaultBaseURL = "https://stock.indianapi.in"

// APIError represents a non-2xx response from the upstream API.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// Client performs authenticated requests against the upstream API.
// Each call carries a fixed deadline; there is no retry loop — a slow
// or failing upstream degrades gracefully at the gateway layer.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates an upstream API client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		logger:     slog.Default(),
		timeout:    15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout sets the fixed per-call deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// Fetch performs a GET against the given upstream endpoint with the
// given query params (empty values are dropped) and returns the raw
// JSON body. Non-2xx responses return an *APIError.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	fullURL := c.baseURL + endpoint
	if cleaned := dropEmpty(params); len(cleaned) > 0 {
		fullURL += "?" + cleaned.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	metrics.UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: body}
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON from upstream %s", endpoint)
	}
	return json.RawMessage(body), nil
}

func dropEmpty(params url.Values) url.Values {
	if params == nil {
		return nil
	}
	cleaned := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			if v != "" {
				cleaned.Add(k, v)
			}
		}
	}
	return cleaned
}
