package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "FANTASY_ADDR", "STOCK_API_BASE_URL",
		"FANTASY_UPSTREAM_TIMEOUT", "FANTASY_CACHE_TTL", "FANTASY_NEWS_CACHE_TTL",
		"DATABASE_URL", "REDIS_URL", "FANTASY_CONTEST_CRON",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("STOCK_API_KEY", "test-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Addr != ":5000" {
		t.Errorf("Addr = %q, want :5000", cfg.Addr)
	}
	if cfg.APIBaseURL != "https://stock.indianapi.in" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.UpstreamTimeout != 15*time.Second {
		t.Errorf("UpstreamTimeout = %v, want 15s", cfg.UpstreamTimeout)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	// News moves fast; it gets a much shorter window than quote data.
	if cfg.NewsCacheTTL != 2*time.Minute {
		t.Errorf("NewsCacheTTL = %v, want 2m", cfg.NewsCacheTTL)
	}
	if cfg.ContestCron != "0 9 * * MON-FRI" {
		t.Errorf("ContestCron = %q", cfg.ContestCron)
	}
}

func TestLoadFromEnv_RequiresAPIKey(t *testing.T) {
	t.Setenv("STOCK_API_KEY", "")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error when STOCK_API_KEY is unset")
	}
}

func TestLoadFromEnv_PortNormalized(t *testing.T) {
	t.Setenv("STOCK_API_KEY", "test-key")
	t.Setenv("PORT", "8080")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
}
