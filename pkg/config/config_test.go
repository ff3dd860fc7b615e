package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":8000" {
		t.Errorf("expected :8000, got %s", cfg.Listen)
	}
	if cfg.Cache.MaxSize != 1000 {
		t.Errorf("expected max size 1000, got %d", cfg.Cache.MaxSize)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("expected 1h TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.RateLimit.ShortLimit != 10 || cfg.RateLimit.ShortHorizon != time.Minute {
		t.Errorf("unexpected short window: %d/%v", cfg.RateLimit.ShortLimit, cfg.RateLimit.ShortHorizon)
	}
	if cfg.RateLimit.LongLimit != 100 || cfg.RateLimit.LongHorizon != time.Hour {
		t.Errorf("unexpected long window: %d/%v", cfg.RateLimit.LongLimit, cfg.RateLimit.LongHorizon)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-test-123")

	content := `
listen: ":9090"
db_path: "test.db"
providers:
  - name: openai
    url: https://api.openai.com
    api_key: ${TEST_API_KEY}
cache:
  max_size: 50
  ttl: 30m
rate_limit:
  short_limit: 5
  short_horizon: 30s
analyzer:
  model: fast
  rps: 2.5
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Listen)
	}
	if cfg.Providers[0].APIKey != "sk-test-123" {
		t.Errorf("env var not expanded: got %s", cfg.Providers[0].APIKey)
	}
	if cfg.Cache.MaxSize != 50 {
		t.Errorf("expected max size 50, got %d", cfg.Cache.MaxSize)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("expected 30m TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.RateLimit.ShortLimit != 5 || cfg.RateLimit.ShortHorizon != 30*time.Second {
		t.Errorf("unexpected short window: %d/%v", cfg.RateLimit.ShortLimit, cfg.RateLimit.ShortHorizon)
	}
	// Unset fields keep their defaults.
	if cfg.RateLimit.LongLimit != 100 {
		t.Errorf("expected default long limit 100, got %d", cfg.RateLimit.LongLimit)
	}
	if cfg.Analyzer.Model != "fast" || cfg.Analyzer.RPS != 2.5 {
		t.Errorf("unexpected analyzer config: %+v", cfg.Analyzer)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cache:\n  max_size: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateHorizonOrder(t *testing.T) {
	cfg := Default()
	cfg.RateLimit.ShortHorizon = 2 * time.Hour
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateProxyHops(t *testing.T) {
	cfg := Default()
	if cfg.ProxyHops != 1 {
		t.Errorf("expected default proxy_hops 1, got %d", cfg.ProxyHops)
	}

	cfg.TrustProxy = true
	cfg.ProxyHops = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
