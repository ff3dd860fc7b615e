package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all memogate configuration.
type Config struct {
	Listen     string           `yaml:"listen"`
	TrustProxy bool             `yaml:"trust_proxy"`
	// ProxyHops counts the trusted proxies in front of the server. The
	// client is the X-Forwarded-For entry that many hops from the right.
	ProxyHops  int              `yaml:"proxy_hops"`
	// AdminToken guards the cache and limiter endpoints. When empty they
	// answer loopback callers only.
	AdminToken string           `yaml:"admin_token"`
	DBPath     string           `yaml:"db_path"`
	Log        LogConfig        `yaml:"log"`
	Cache      CacheConfig      `yaml:"cache"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Providers  []ProviderConfig `yaml:"providers"`
	Router     RouterConfig     `yaml:"router"`
	Analyzer   AnalyzerConfig   `yaml:"analyzer"`
	Tracker    TrackerConfig    `yaml:"tracker"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// LogConfig selects the log level and output format ("console" or "json").
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CacheConfig controls the in-memory result cache.
type CacheConfig struct {
	MaxSize         int           `yaml:"max_size"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// RateLimitConfig controls per-client admission.
type RateLimitConfig struct {
	ShortLimit    int           `yaml:"short_limit"`
	ShortHorizon  time.Duration `yaml:"short_horizon"`
	LongLimit     int           `yaml:"long_limit"`
	LongHorizon   time.Duration `yaml:"long_horizon"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// ProviderConfig defines an upstream OpenAI-compatible LLM provider.
type ProviderConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// RouterConfig defines model routing and fallback chains.
type RouterConfig struct {
	Routes []RouteConfig `yaml:"routes"`
}

// RouteConfig maps a model alias to an ordered list of targets.
type RouteConfig struct {
	Model   string        `yaml:"model"`
	Targets []RouteTarget `yaml:"targets"`
}

// RouteTarget identifies a specific provider and model in a fallback chain.
type RouteTarget struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// AnalyzerConfig controls the upstream analysis call.
type AnalyzerConfig struct {
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	// RPS paces outbound provider calls; 0 disables pacing.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// TrackerConfig controls the SQLite request log.
type TrackerConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Retention time.Duration `yaml:"retention"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen:    ":8000",
		ProxyHops: 1,
		DBPath:    "memogate.db",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Cache: CacheConfig{
			MaxSize:         1000,
			TTL:             time.Hour,
			CleanupInterval: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			ShortLimit:    10,
			ShortHorizon:  time.Minute,
			LongLimit:     100,
			LongHorizon:   time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Analyzer: AnalyzerConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			Timeout:     60 * time.Second,
		},
		Tracker: TrackerConfig{
			Enabled:   true,
			Retention: 7 * 24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads a YAML config file and expands environment variables. A .env
// file next to the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the cache and limiter cannot be built with.
func (c *Config) Validate() error {
	switch {
	case c.TrustProxy && c.ProxyHops <= 0:
		return fmt.Errorf("%w: proxy_hops must be positive when trust_proxy is set", ErrInvalidConfig)
	case c.Cache.MaxSize <= 0:
		return fmt.Errorf("%w: cache.max_size must be positive", ErrInvalidConfig)
	case c.Cache.TTL <= 0:
		return fmt.Errorf("%w: cache.ttl must be positive", ErrInvalidConfig)
	case c.RateLimit.ShortLimit <= 0 || c.RateLimit.LongLimit <= 0:
		return fmt.Errorf("%w: rate_limit limits must be positive", ErrInvalidConfig)
	case c.RateLimit.ShortHorizon <= 0 || c.RateLimit.LongHorizon <= 0:
		return fmt.Errorf("%w: rate_limit horizons must be positive", ErrInvalidConfig)
	case c.RateLimit.ShortHorizon > c.RateLimit.LongHorizon:
		return fmt.Errorf("%w: rate_limit.short_horizon exceeds long_horizon", ErrInvalidConfig)
	}
	return nil
}
