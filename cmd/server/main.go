package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/stockfantasy/contest-engine/internal/config"
	"github.com/stockfantasy/contest-engine/internal/contest"
	"github.com/stockfantasy/contest-engine/internal/learning"
	"github.com/stockfantasy/contest-engine/internal/marketdata"
	"github.com/stockfantasy/contest-engine/internal/metrics"
	"github.com/stockfantasy/contest-engine/internal/model"
	"github.com/stockfantasy/contest-engine/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(1)
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	// Wrap with Redis read-through cache if configured.
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		st = store.NewCachedStore(st, rdb, 30*time.Second)
		slog.Info("Redis cache enabled")
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// Seed the session user if this is a fresh store.
	if _, err := st.GetUser(context.Background(), model.DefaultUserID); errors.Is(err, store.ErrNotFound) {
		if err := st.SaveUser(context.Background(), model.DefaultUser()); err != nil {
			slog.Error("failed to seed user", "err", err)
			os.Exit(1)
		}
	}

	// --- Market data gateway ---
	client := marketdata.NewClient(cfg.APIBaseURL, cfg.APIKey,
		marketdata.WithTimeout(cfg.UpstreamTimeout),
		marketdata.WithLogger(logger),
	)
	gateway := marketdata.NewGateway(client, cfg.CacheTTL, cfg.NewsCacheTTL, logger)

	// --- WebSocket hub ---
	hub := contest.NewHub()
	go hub.Run()

	// --- Services ---
	contestSvc := contest.NewService(st, gateway, hub)
	learnSvc := learning.NewService(gateway, contestSvc, logger)

	if _, err := contestSvc.EnsureDefaultContests(context.Background()); err != nil {
		slog.Error("failed to ensure default contests", "err", err)
		os.Exit(1)
	}

	// Keep default contests rolling on weekday mornings.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ContestCron, func() {
		if _, err := contestSvc.EnsureDefaultContests(context.Background()); err != nil {
			slog.Error("scheduled contest refresh failed", "err", err)
		}
	}); err != nil {
		slog.Error("invalid contest schedule", "cron", cfg.ContestCron, "err", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"healthy","message":"Stock Market Fantasy Game API is running!","version":"1.0.0"}`))
		})

		// WebSocket endpoint for real-time leaderboard updates.
		api.Get("/ws", hub.HandleWS)

		api.Mount("/contests", contestSvc.ContestRoutes())
		api.Mount("/user", contestSvc.UserRoutes())
		api.Mount("/scoring", contestSvc.ScoringRoutes())
		api.Mount("/learning", learnSvc.Routes())

		// Flat market-data proxy routes (trending, stock, news, ...).
		api.Mount("/", gateway.Routes())
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("contest-engine listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down contest-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("contest-engine stopped")
}
