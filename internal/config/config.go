// Package config loads server configuration from the environment. A
// local .env file is honored when present.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	APIBaseURL      string
	APIKey          string
	UpstreamTimeout time.Duration
	CacheTTL        time.Duration
	NewsCacheTTL    time.Duration
	DatabaseURL     string
	RedisURL        string
	ContestCron     string
}

// LoadFromEnv reads configuration from the environment. Only the API
// key is required; everything else has a sane default. DATABASE_URL
// and REDIS_URL left empty select the in-memory store.
func LoadFromEnv() (Config, error) {
	// Missing .env is fine; env vars may come from the shell.
	_ = godotenv.Load()

	addr := strings.TrimSpace(os.Getenv("PORT"))
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("FANTASY_ADDR", ":5000")
	}

	cfg := Config{
		Addr:            addr,
		APIBaseURL:      strings.TrimRight(envDefault("STOCK_API_BASE_URL", "https://stock.indianapi.in"), "/"),
		APIKey:          strings.TrimSpace(os.Getenv("STOCK_API_KEY")),
		UpstreamTimeout: envDurationDefault("FANTASY_UPSTREAM_TIMEOUT", 15*time.Second),
		CacheTTL:        envDurationDefault("FANTASY_CACHE_TTL", 5*time.Minute),
		NewsCacheTTL:    envDurationDefault("FANTASY_NEWS_CACHE_TTL", 2*time.Minute),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:        strings.TrimSpace(os.Getenv("REDIS_URL")),
		ContestCron:     envDefault("FANTASY_CONTEST_CRON", "0 9 * * MON-FRI"),
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("STOCK_API_KEY is required")
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
