package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"teamup/internal/apperrors"
)

const (
	DefaultBaseURL           = "http://localhost:8000"
	DefaultHTTPTimeout       = 15 * time.Second
	DefaultCacheMaxSize      = 256
	DefaultCacheTTL          = 5 * time.Minute
	DefaultAlertFetchRetries = 2
)

// Config holds the client-side settings for the join-request core.
type Config struct {
	// BaseURL is the root of the membership/alert store API.
	BaseURL string
	// HTTPTimeout bounds every single round trip.
	HTTPTimeout time.Duration
	// AlertFetchRetry tunes the only retried call (alert-list fetch).
	AlertFetchRetry apperrors.RetryConfig
	// CacheMaxSize bounds the projection cache's activity snapshots.
	CacheMaxSize int
	// CacheTTL is how long a cached activity snapshot remains valid.
	CacheTTL time.Duration
}

// EnvLookup resolves an environment variable the way os.LookupEnv does.
// Injectable so tests never mutate the process environment.
type EnvLookup func(key string) (string, bool)

// DefaultEnvLookup reads from the process environment.
func DefaultEnvLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

type loadOptions struct {
	envLookup EnvLookup
}

// Option customizes Load.
type Option func(*loadOptions)

// WithEnvLookup substitutes the environment source.
func WithEnvLookup(lookup EnvLookup) Option {
	return func(o *loadOptions) {
		if lookup != nil {
			o.envLookup = lookup
		}
	}
}

// Load builds a Config from defaults overridden by TEAMUP_* environment
// variables.
func Load(opts ...Option) (Config, error) {
	options := loadOptions{envLookup: DefaultEnvLookup}
	for _, opt := range opts {
		opt(&options)
	}
	env := options.envLookup

	cfg := Config{
		BaseURL:     DefaultBaseURL,
		HTTPTimeout: DefaultHTTPTimeout,
		AlertFetchRetry: apperrors.RetryConfig{
			MaxAttempts:  DefaultAlertFetchRetries,
			BaseDelay:    250 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			JitterFactor: 0.25,
		},
		CacheMaxSize: DefaultCacheMaxSize,
		CacheTTL:     DefaultCacheTTL,
	}

	if v, ok := env("TEAMUP_API_BASE_URL"); ok && strings.TrimSpace(v) != "" {
		cfg.BaseURL = strings.TrimRight(strings.TrimSpace(v), "/")
	}
	if v, ok := env("TEAMUP_HTTP_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("invalid TEAMUP_HTTP_TIMEOUT %q: %w", v, err)
		}
		cfg.HTTPTimeout = d
	}
	if v, ok := env("TEAMUP_ALERT_FETCH_RETRIES"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid TEAMUP_ALERT_FETCH_RETRIES %q", v)
		}
		cfg.AlertFetchRetry.MaxAttempts = n
	}
	if v, ok := env("TEAMUP_CACHE_SIZE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid TEAMUP_CACHE_SIZE %q", v)
		}
		cfg.CacheMaxSize = n
	}
	if v, ok := env("TEAMUP_CACHE_TTL"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("invalid TEAMUP_CACHE_TTL %q: %w", v, err)
		}
		cfg.CacheTTL = d
	}

	return cfg, nil
}
