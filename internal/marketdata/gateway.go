package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/stockfantasy/contest-engine/internal/metrics"
	"github.com/stockfantasy/contest-engine/internal/scoring"
)

// Input-validation errors surfaced on direct data-query paths. The
// messages are user-facing.
var (
	ErrNameRequired    = errors.New("Stock name is required")
	ErrQueryRequired   = errors.New("Query is required")
	ErrStatsRequired   = errors.New("Stock name and stats are required")
	ErrStockIDRequired = errors.New("Stock ID is required")
	ErrFundRequired    = errors.New("Fund name is required")
)

// Gateway wraps the upstream client with a read-through TTL cache.
// Bulk discovery endpoints are cached; per-stock lookups are not, so
// scoring always sees fresh data.
type Gateway struct {
	client     *Client
	cache      *ttlCache
	defaultTTL time.Duration
	newsTTL    time.Duration
	logger     *slog.Logger
}

// NewGateway creates a gateway with the given cache TTLs.
func NewGateway(client *Client, defaultTTL, newsTTL time.Duration, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		client:     client,
		cache:      newTTLCache(),
		defaultTTL: defaultTTL,
		newsTTL:    newsTTL,
		logger:     logger,
	}
}

// ClearCache drops all cached upstream responses.
func (g *Gateway) ClearCache() {
	g.cache.clear()
}

// fetchCached reads through the cache for the given endpoint+params.
func (g *Gateway) fetchCached(ctx context.Context, endpoint string, params url.Values, ttl time.Duration) (json.RawMessage, error) {
	key := endpoint
	if cleaned := dropEmpty(params); len(cleaned) > 0 {
		key += "?" + cleaned.Encode()
	}

	if data, ok := g.cache.get(key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return data, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	data, err := g.client.Fetch(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	g.cache.set(key, data, ttl)
	return data, nil
}

// --- Trending & discovery (cached) ---

func (g *Gateway) Trending(ctx context.Context) (json.RawMessage, error) {
	return g.fetchCached(ctx, "/trending", nil, g.defaultTTL)
}

func (g *Gateway) PriceShockers(ctx context.Context) (json.RawMessage, error) {
	return g.fetchCached(ctx, "/price_shockers", nil, g.defaultTTL)
}

func (g *Gateway) NSEMostActive(ctx context.Context) (json.RawMessage, error) {
	return g.fetchCached(ctx, "/NSE_most_active", nil, g.defaultTTL)
}

func (g *Gateway) BSEMostActive(ctx context.Context) (json.RawMessage, error) {
	return g.fetchCached(ctx, "/BSE_most_active", nil, g.defaultTTL)
}

func (g *Gateway) FiftyTwoWeekHighLow(ctx context.Context) (json.RawMessage, error) {
	return g.fetchCached(ctx, "/fetch_52_week_high_low_data", nil, g.defaultTTL)
}

func (g *Gateway) IPO(ctx context.Context) (json.RawMessage, error) {
	return g.fetchCached(ctx, "/ipo", nil, g.defaultTTL)
}

// News is cached on a shorter TTL: headlines go stale fast.
func (g *Gateway) News(ctx context.Context) (json.RawMessage, error) {
	return g.fetchCached(ctx, "/news", nil, g.newsTTL)
}

func (g *Gateway) Commodities(ctx context.Context) (json.RawMessage, error) {
	return g.fetchCached(ctx, "/commodities", nil, g.defaultTTL)
}

func (g *Gateway) MutualFunds(ctx context.Context) (json.RawMessage, error) {
	return g.fetchCached(ctx, "/mutual_funds", nil, g.defaultTTL)
}

// --- Stock details (not cached) ---

func (g *Gateway) StockDetails(ctx context.Context, name string) (json.RawMessage, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	return g.client.Fetch(ctx, "/stock", url.Values{"name": {name}})
}

func (g *Gateway) HistoricalData(ctx context.Context, stockName, period, filter string) (json.RawMessage, error) {
	if stockName == "" {
		return nil, ErrNameRequired
	}
	return g.client.Fetch(ctx, "/historical_data", url.Values{
		"stock_name": {stockName},
		"period":     {period},
		"filter":     {filter},
	})
}

func (g *Gateway) HistoricalStats(ctx context.Context, stockName, stats string) (json.RawMessage, error) {
	if stockName == "" || stats == "" {
		return nil, ErrStatsRequired
	}
	return g.client.Fetch(ctx, "/historical_stats", url.Values{
		"stock_name": {stockName},
		"stats":      {stats},
	})
}

func (g *Gateway) Statement(ctx context.Context, stockName, stats string) (json.RawMessage, error) {
	if stockName == "" || stats == "" {
		return nil, ErrStatsRequired
	}
	return g.client.Fetch(ctx, "/statement", url.Values{
		"stock_name": {stockName},
		"stats":      {stats},
	})
}

func (g *Gateway) CorporateActions(ctx context.Context, stockName string) (json.RawMessage, error) {
	if stockName == "" {
		return nil, ErrNameRequired
	}
	return g.client.Fetch(ctx, "/corporate_actions", url.Values{"stock_name": {stockName}})
}

func (g *Gateway) RecentAnnouncements(ctx context.Context, stockName string) (json.RawMessage, error) {
	if stockName == "" {
		return nil, ErrNameRequired
	}
	return g.client.Fetch(ctx, "/recent_announcements", url.Values{"stock_name": {stockName}})
}

func (g *Gateway) IndustrySearch(ctx context.Context, query string) (json.RawMessage, error) {
	if query == "" {
		return nil, ErrQueryRequired
	}
	return g.client.Fetch(ctx, "/industry_search", url.Values{"query": {query}})
}

// --- Forecasts & analysis ---

func (g *Gateway) StockForecasts(ctx context.Context, stockID, measureCode, periodType, dataType, age string) (json.RawMessage, error) {
	if stockID == "" {
		return nil, ErrStockIDRequired
	}
	return g.client.Fetch(ctx, "/stock_forecasts", url.Values{
		"stock_id":     {stockID},
		"measure_code": {measureCode},
		"period_type":  {periodType},
		"data_type":    {dataType},
		"age":          {age},
	})
}

func (g *Gateway) StockTargetPrice(ctx context.Context, stockID string) (json.RawMessage, error) {
	if stockID == "" {
		return nil, ErrStockIDRequired
	}
	return g.client.Fetch(ctx, "/stock_target_price", url.Values{"stock_id": {stockID}})
}

// --- Mutual funds ---

func (g *Gateway) MutualFundSearch(ctx context.Context, query string) (json.RawMessage, error) {
	if query == "" {
		return nil, ErrQueryRequired
	}
	return g.client.Fetch(ctx, "/mutual_fund_search", url.Values{"query": {query}})
}

func (g *Gateway) MutualFundDetails(ctx context.Context, stockName string) (json.RawMessage, error) {
	if stockName == "" {
		return nil, ErrFundRequired
	}
	return g.client.Fetch(ctx, "/mutual_funds_details", url.Values{"stock_name": {stockName}})
}

// --- Scoring snapshot source ---

// StockSnapshot fetches and normalizes a fresh market snapshot for one
// stock, keyed by display name. An upstream failure degrades to an
// empty snapshot so a single bad fetch never aborts portfolio scoring.
func (g *Gateway) StockSnapshot(ctx context.Context, name string) (scoring.Snapshot, error) {
	raw, err := g.StockDetails(ctx, name)
	if err != nil {
		g.logger.Warn("snapshot fetch failed, degrading to empty", "stock", name, "err", err)
		return scoring.Snapshot{}, nil
	}
	return scoring.ParseSnapshot(raw), nil
}
