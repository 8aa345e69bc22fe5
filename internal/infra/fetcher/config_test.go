package fetcher_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"mext-feed/internal/infra/fetcher"
	"mext-feed/internal/pkg/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := fetcher.DefaultConfig()

	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected Timeout=30s, got %v", cfg.Timeout)
	}
	if cfg.UserAgent != "MextFeedBot/1.0 (+contact)" {
		t.Errorf("unexpected UserAgent %q", cfg.UserAgent)
	}
	if cfg.MaxBodySize != 10*1024*1024 {
		t.Errorf("expected MaxBodySize=10MB, got %d", cfg.MaxBodySize)
	}
	if cfg.MaxAttempts != 1 {
		t.Errorf("expected MaxAttempts=1 (no retry), got %d", cfg.MaxAttempts)
	}
	if cfg.Parallelism != 1 {
		t.Errorf("expected Parallelism=1 (sequential), got %d", cfg.Parallelism)
	}
	if cfg.RateLimit != 0 {
		t.Errorf("expected RateLimit=0, got %v", cfg.RateLimit)
	}

	// Verify default config is valid
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid, got error: %v", err)
	}
}

func TestConfigValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*fetcher.FetchConfig)
	}{
		{"zero timeout", func(c *fetcher.FetchConfig) { c.Timeout = 0 }},
		{"empty user agent", func(c *fetcher.FetchConfig) { c.UserAgent = "" }},
		{"body too small", func(c *fetcher.FetchConfig) { c.MaxBodySize = 10 }},
		{"body too large", func(c *fetcher.FetchConfig) { c.MaxBodySize = 200 * 1024 * 1024 }},
		{"negative redirects", func(c *fetcher.FetchConfig) { c.MaxRedirects = -1 }},
		{"zero attempts", func(c *fetcher.FetchConfig) { c.MaxAttempts = 0 }},
		{"negative rate", func(c *fetcher.FetchConfig) { c.RateLimit = -1 }},
		{"parallelism too high", func(c *fetcher.FetchConfig) { c.Parallelism = 100 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fetcher.DefaultConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "15s")
	t.Setenv("FETCH_USER_AGENT", "TestBot/2.0")
	t.Setenv("FETCH_MAX_ATTEMPTS", "3")
	t.Setenv("FETCH_RATE_LIMIT", "0.5")
	t.Setenv("FETCH_PARALLELISM", "4")

	cfg := fetcher.LoadConfigFromEnv(nil, nil)

	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "TestBot/2.0", cfg.UserAgent)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 0.5, cfg.RateLimit)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxBodySize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv_FallbackOnInvalid(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "forever")
	t.Setenv("FETCH_MAX_ATTEMPTS", "99")
	t.Setenv("FETCH_PARALLELISM", "abc")

	reg := prometheus.NewRegistry()
	metrics := config.NewConfigMetrics("fetcher", reg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := fetcher.LoadConfigFromEnv(logger, metrics)

	defaults := fetcher.DefaultConfig()
	assert.Equal(t, defaults.Timeout, cfg.Timeout)
	assert.Equal(t, defaults.MaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, defaults.Parallelism, cfg.Parallelism)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FallbackActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("timeout")))
	assert.NoError(t, cfg.Validate())
}
