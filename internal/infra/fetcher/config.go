package fetcher

import (
	"fmt"
	"log/slog"
	"time"

	"mext-feed/internal/pkg/config"
)

// DefaultUserAgent identifies the poller to feed publishers.
const DefaultUserAgent = "MextFeedBot/1.0 (+contact)"

// AcceptHeader favors XML feed media types.
const AcceptHeader = "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"

// FetchConfig holds the configuration for feed fetching.
type FetchConfig struct {
	// Timeout is the maximum duration of a single feed request, including the
	// body read. A timeout is an ordinary per-feed failure.
	// Default: 30s
	Timeout time.Duration

	// UserAgent is sent with every request.
	// Default: DefaultUserAgent
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// Default: 10485760 (10MB)
	MaxBodySize int64

	// MaxRedirects is the maximum number of redirects followed per request.
	// Default: 5
	MaxRedirects int

	// MaxAttempts is the number of tries per feed. Only retryable failures
	// (timeouts, 5xx, 429) are retried.
	// Default: 1 (no retry)
	MaxAttempts int

	// RateLimit is the maximum number of requests per second across all feeds.
	// Default: 0 (unlimited)
	RateLimit float64

	// Parallelism is the number of feeds fetched concurrently.
	// Default: 1 (sequential, registry order)
	Parallelism int
}

// DefaultConfig returns the default configuration for feed fetching.
func DefaultConfig() FetchConfig {
	return FetchConfig{
		Timeout:      30 * time.Second,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  10 * 1024 * 1024, // 10MB
		MaxRedirects: 5,
		MaxAttempts:  1,
		RateLimit:    0,
		Parallelism:  1,
	}
}

// Validate checks if the configuration values are valid and safe.
//
// Validation rules:
//   - Timeout: > 0
//   - UserAgent: non-empty
//   - MaxBodySize: 1KB-100MB
//   - MaxRedirects: 0-10
//   - MaxAttempts: 1-5
//   - RateLimit: >= 0
//   - Parallelism: 1-16
func (c *FetchConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user agent must not be empty")
	}

	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	if c.MaxAttempts < 1 || c.MaxAttempts > 5 {
		return fmt.Errorf("max attempts must be between 1 and 5, got %d", c.MaxAttempts)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative, got %v", c.RateLimit)
	}

	if c.Parallelism < 1 || c.Parallelism > 16 {
		return fmt.Errorf("parallelism must be between 1 and 16, got %d", c.Parallelism)
	}

	return nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// Invalid values never fail the load: each one falls back to its default,
// is logged, and is counted in metrics (both may be nil).
//
// Environment variables:
//   - FETCH_TIMEOUT: duration string, e.g. "30s" (default: 30s)
//   - FETCH_USER_AGENT: string (default: DefaultUserAgent)
//   - FETCH_MAX_BODY_SIZE: integer in bytes (default: 10485760)
//   - FETCH_MAX_REDIRECTS: integer (default: 5)
//   - FETCH_MAX_ATTEMPTS: integer (default: 1)
//   - FETCH_RATE_LIMIT: requests per second, 0 = unlimited (default: 0)
//   - FETCH_PARALLELISM: integer (default: 1)
func LoadConfigFromEnv(logger *slog.Logger, metrics *config.ConfigMetrics) FetchConfig {
	defaults := DefaultConfig()
	c := config.NewCollector(logger, metrics)

	cfg := FetchConfig{
		Timeout: config.Track(c, "timeout", config.LoadEnvDuration("FETCH_TIMEOUT", defaults.Timeout,
			func(d time.Duration) error { return config.ValidateDuration(d, time.Second, 5*time.Minute) })),
		UserAgent: config.LoadEnvString("FETCH_USER_AGENT", defaults.UserAgent),
		MaxBodySize: config.Track(c, "max_body_size", config.LoadEnvInt64("FETCH_MAX_BODY_SIZE", defaults.MaxBodySize,
			func(v int64) error {
				if v < 1024 || v > 100*1024*1024 {
					return fmt.Errorf("must be between 1KB and 100MB, got %d", v)
				}
				return nil
			})),
		MaxRedirects: config.Track(c, "max_redirects", config.LoadEnvInt("FETCH_MAX_REDIRECTS", defaults.MaxRedirects,
			func(v int) error { return config.ValidateIntRange(v, 0, 10) })),
		MaxAttempts: config.Track(c, "max_attempts", config.LoadEnvInt("FETCH_MAX_ATTEMPTS", defaults.MaxAttempts,
			func(v int) error { return config.ValidateIntRange(v, 1, 5) })),
		RateLimit: config.Track(c, "rate_limit", config.LoadEnvFloat("FETCH_RATE_LIMIT", defaults.RateLimit,
			config.ValidateNonNegativeFloat)),
		Parallelism: config.Track(c, "parallelism", config.LoadEnvInt("FETCH_PARALLELISM", defaults.Parallelism,
			func(v int) error { return config.ValidateIntRange(v, 1, 16) })),
	}

	c.Finish()
	return cfg
}
