package worker

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"mext-feed/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0 */3 * * *", cfg.CronSchedule)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 9091, cfg.HealthPort)
	assert.Equal(t, 9090, cfg.MetricsPort)
	require.NoError(t, cfg.Validate())
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkerConfig)
		wantErr string
	}{
		{name: "bad cron", mutate: func(c *WorkerConfig) { c.CronSchedule = "every hour" }, wantErr: "cron schedule"},
		{name: "bad timezone", mutate: func(c *WorkerConfig) { c.Timezone = "Mars/Olympus" }, wantErr: "timezone"},
		{name: "timeout too short", mutate: func(c *WorkerConfig) { c.RunTimeout = time.Second }, wantErr: "run timeout"},
		{name: "privileged port", mutate: func(c *WorkerConfig) { c.HealthPort = 80 }, wantErr: "health port"},
		{name: "port clash", mutate: func(c *WorkerConfig) { c.MetricsPort = c.HealthPort }, wantErr: "must differ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkerConfig_Validate_ReportsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CronSchedule = ""
	cfg.Timezone = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cron schedule")
	assert.Contains(t, err.Error(), "timezone")
}

func TestWorkerConfig_Location(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Asia/Tokyo", cfg.Location().String())

	cfg.Timezone = "Nowhere/Invalid"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadConfigFromEnv_Valid(t *testing.T) {
	t.Setenv("CRON_SCHEDULE", "15 6 * * 1-5")
	t.Setenv("WORKER_TIMEZONE", "UTC")
	t.Setenv("RUN_TIMEOUT", "10m")
	t.Setenv("WORKER_HEALTH_PORT", "8081")
	t.Setenv("METRICS_PORT", "8082")

	reg := prometheus.NewRegistry()
	metrics := config.NewConfigMetrics("worker", reg)
	cfg := LoadConfigFromEnv(slog.New(slog.DiscardHandler), metrics)

	assert.Equal(t, WorkerConfig{
		CronSchedule: "15 6 * * 1-5",
		Timezone:     "UTC",
		RunTimeout:   10 * time.Minute,
		HealthPort:   8081,
		MetricsPort:  8082,
	}, cfg)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))
}

func TestLoadConfigFromEnv_FallbackOnInvalid(t *testing.T) {
	t.Setenv("CRON_SCHEDULE", "not a cron")
	t.Setenv("RUN_TIMEOUT", "5h")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	reg := prometheus.NewRegistry()
	metrics := config.NewConfigMetrics("worker", reg)

	cfg := LoadConfigFromEnv(logger, metrics)

	defaults := DefaultConfig()
	assert.Equal(t, defaults.CronSchedule, cfg.CronSchedule)
	assert.Equal(t, defaults.RunTimeout, cfg.RunTimeout)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("cron_schedule")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("run_timeout")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
	assert.Equal(t, 2, strings.Count(buf.String(), "Configuration fallback applied"))
}

func TestLoadConfigFromEnv_PortClash(t *testing.T) {
	t.Setenv("WORKER_HEALTH_PORT", "8000")
	t.Setenv("METRICS_PORT", "8000")

	cfg := LoadConfigFromEnv(nil, nil)

	assert.Equal(t, 9091, cfg.HealthPort)
	assert.Equal(t, 9090, cfg.MetricsPort)
}
