package marketdata

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// envelope is the uniform result wrapper for proxied data queries.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, data json.RawMessage, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		json.NewEncoder(w).Encode(envelope{Success: false, Error: err.Error()})
		return
	}
	json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

type fetchFunc func(r *http.Request) (json.RawMessage, error)

func (g *Gateway) handle(fetch fetchFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fetch(r)
		writeEnvelope(w, data, err)
	}
}

// Routes returns the proxy route surface for the upstream market-data
// API. Every query is wrapped in the {success, data|error} envelope.
func (g *Gateway) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/trending", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.Trending(r.Context())
	}))
	r.Get("/stock", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.StockDetails(r.Context(), r.URL.Query().Get("name"))
	}))
	r.Get("/historical_data", g.handle(func(r *http.Request) (json.RawMessage, error) {
		q := r.URL.Query()
		period := q.Get("period")
		if period == "" {
			period = "1m"
		}
		filter := q.Get("filter")
		if filter == "" {
			filter = "default"
		}
		return g.HistoricalData(r.Context(), q.Get("stock_name"), period, filter)
	}))
	r.Get("/historical_stats", g.handle(func(r *http.Request) (json.RawMessage, error) {
		q := r.URL.Query()
		return g.HistoricalStats(r.Context(), q.Get("stock_name"), q.Get("stats"))
	}))
	r.Get("/statement", g.handle(func(r *http.Request) (json.RawMessage, error) {
		q := r.URL.Query()
		return g.Statement(r.Context(), q.Get("stock_name"), q.Get("stats"))
	}))
	r.Get("/news", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.News(r.Context())
	}))
	r.Get("/ipo", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.IPO(r.Context())
	}))
	r.Get("/commodities", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.Commodities(r.Context())
	}))
	r.Get("/mutual_funds", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.MutualFunds(r.Context())
	}))
	r.Get("/mutual_fund_search", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.MutualFundSearch(r.Context(), r.URL.Query().Get("query"))
	}))
	r.Get("/mutual_fund_details", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.MutualFundDetails(r.Context(), r.URL.Query().Get("stock_name"))
	}))
	r.Get("/price_shockers", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.PriceShockers(r.Context())
	}))
	r.Get("/nse_most_active", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.NSEMostActive(r.Context())
	}))
	r.Get("/bse_most_active", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.BSEMostActive(r.Context())
	}))
	r.Get("/52_week_high_low", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.FiftyTwoWeekHighLow(r.Context())
	}))
	r.Get("/corporate_actions", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.CorporateActions(r.Context(), r.URL.Query().Get("stock_name"))
	}))
	r.Get("/recent_announcements", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.RecentAnnouncements(r.Context(), r.URL.Query().Get("stock_name"))
	}))
	r.Get("/industry_search", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.IndustrySearch(r.Context(), r.URL.Query().Get("query"))
	}))
	r.Get("/stock_forecasts", g.handle(func(r *http.Request) (json.RawMessage, error) {
		q := r.URL.Query()
		return g.StockForecasts(r.Context(),
			q.Get("stock_id"),
			valueOr(q.Get("measure_code"), "EPS"),
			valueOr(q.Get("period_type"), "Annual"),
			valueOr(q.Get("data_type"), "Actuals"),
			valueOr(q.Get("age"), "OneWeekAgo"),
		)
	}))
	r.Get("/stock_target_price", g.handle(func(r *http.Request) (json.RawMessage, error) {
		return g.StockTargetPrice(r.Context(), r.URL.Query().Get("stock_id"))
	}))

	r.Post("/cache/clear", func(w http.ResponseWriter, _ *http.Request) {
		g.ClearCache()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": "Cache cleared",
		})
	})

	return r
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
