// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata" // IANA zones without host zoneinfo
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Timezone is the IANA zone used to render match dates. "Local" uses
	// the server zone.
	Timezone string `koanf:"timezone"`

	// UnknownMapFallback renders unrecognized map ids as "unknown" instead
	// of failing the lookup.
	UnknownMapFallback bool `koanf:"unknown_map_fallback"`

	// NormalizeWorkers bounds concurrent normalization per lookup.
	NormalizeWorkers int `koanf:"normalize_workers"`

	// Per-client request limits.
	RatePerSecond int `koanf:"rate_per_second"`
	RatePerMinute int `koanf:"rate_per_minute"`
	RatePerHour   int `koanf:"rate_per_hour"`

	// Game service endpoints. The player-data URL may contain "{region}".
	RiotAuthURL         string `koanf:"riot_auth_url"`
	RiotEntitlementsURL string `koanf:"riot_entitlements_url"`
	RiotPDURLTemplate   string `koanf:"riot_pd_url_template"`

	RiotTimeoutMS        int `koanf:"riot_timeout_ms"`
	RiotMaxRetries       int `koanf:"riot_max_retries"`
	RiotMatchCount       int `koanf:"riot_match_count"`
	RiotBreakerFailures  int `koanf:"riot_breaker_failures"`
	RiotBreakerTimeoutMS int `koanf:"riot_breaker_timeout_ms"`

	// Metrics naming and collection.
	MetricsEnabled   bool              `koanf:"metrics_enabled"`
	MetricsNamespace string            `koanf:"metrics_namespace"`
	MetricsSubsystem string            `koanf:"metrics_subsystem"`
	MetricsPrefix    string            `koanf:"metrics_prefix"`
	MetricsRefreshMS int               `koanf:"metrics_refresh_ms"`
	MetricsBuckets   []float64         `koanf:"metrics_buckets"`
	MetricsLabels    map[string]string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":5000",
		Timezone:             "Local",
		NormalizeWorkers:     4,
		RatePerSecond:        2,
		RatePerMinute:        15,
		RatePerHour:          30,
		RiotAuthURL:          "https://auth.riotgames.com",
		RiotEntitlementsURL:  "https://entitlements.auth.riotgames.com",
		RiotPDURLTemplate:    "https://pd.{region}.a.pvp.net",
		RiotTimeoutMS:        10_000,
		RiotMaxRetries:       2,
		RiotMatchCount:       20,
		RiotBreakerFailures:  5,
		RiotBreakerTimeoutMS: 30_000,
		MetricsEnabled:       true,
		MetricsNamespace:     "rrtrack",
		MetricsSubsystem:     "matches",
		MetricsRefreshMS:     10_000,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RatePerSecond <= 0 || c.RatePerMinute <= 0 || c.RatePerHour <= 0:
		return fmt.Errorf("%w: rate limits must be greater than 0", ErrInvalidConfig)
	case c.NormalizeWorkers <= 0:
		return fmt.Errorf("%w: normalize_workers must be greater than 0", ErrInvalidConfig)
	case c.RiotMatchCount <= 0:
		return fmt.Errorf("%w: riot_match_count must be greater than 0", ErrInvalidConfig)
	case c.RiotMaxRetries < 0:
		return fmt.Errorf("%w: riot_max_retries must not be negative", ErrInvalidConfig)
	case c.RiotTimeoutMS <= 0 || c.RiotBreakerTimeoutMS <= 0:
		return fmt.Errorf("%w: riot timeouts must be greater than 0", ErrInvalidConfig)
	case c.RiotBreakerFailures <= 0:
		return fmt.Errorf("%w: riot_breaker_failures must be greater than 0", ErrInvalidConfig)
	case c.MetricsNamespace == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	case c.MetricsRefreshMS <= 0:
		return fmt.Errorf("%w: metrics_refresh_ms must be greater than 0", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// RiotTimeout returns the per-request upstream timeout.
func (c *Config) RiotTimeout() time.Duration {
	return time.Duration(c.RiotTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns how often system gauges are refreshed.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// RiotBreakerTimeout returns how long the breaker stays open.
func (c *Config) RiotBreakerTimeout() time.Duration {
	return time.Duration(c.RiotBreakerTimeoutMS) * time.Millisecond
}
