// Package metrics provides Prometheus instrumentation for the contest engine.
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ContestsCreated counts contests created, partitioned by type.
	ContestsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fantasy_contests_created_total",
		Help: "Total number of contests created",
	}, []string{"type"})

	// Submissions counts portfolio submissions by outcome (accepted/rejected).
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fantasy_portfolio_submissions_total",
		Help: "Total portfolio submissions",
	}, []string{"outcome"})

	// EntriesScored counts entries whose score was recomputed.
	EntriesScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fantasy_entries_scored_total",
		Help: "Entries scored against live market data",
	})

	// ScoringDuration tracks portfolio scoring latency (blocks once per
	// held stock on the upstream API).
	ScoringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fantasy_scoring_duration_seconds",
		Help:    "Portfolio scoring duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// UpstreamRequests counts market-data API calls by endpoint and status.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fantasy_upstream_requests_total",
		Help: "Requests to the upstream market-data API",
	}, []string{"endpoint", "status"})

	// CacheLookups counts gateway cache lookups by result (hit/miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fantasy_cache_lookups_total",
		Help: "Market-data cache lookups",
	}, []string{"result"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fantasy_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fantasy_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fantasy_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; the route surface is small
		// and mostly static, so cardinality stays bounded.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}
