// Package worker holds the scheduled-mode plumbing of the poller: cron
// configuration, the health probe server, and job-level metrics.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mext-feed/internal/pkg/config"
)

// WorkerConfig controls the scheduled poller.
//
// Environment variables:
//   - CRON_SCHEDULE: 5-field cron expression (default: "0 */3 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "Asia/Tokyo")
//   - RUN_TIMEOUT: upper bound of one poll run, 1m-4h (default: 30m)
//   - WORKER_HEALTH_PORT: 1024-65535 (default: 9091)
//   - METRICS_PORT: 1024-65535 (default: 9090)
type WorkerConfig struct {
	// CronSchedule is the cron expression for job scheduling.
	// Format: "minute hour day month weekday"
	CronSchedule string

	// Timezone is the IANA timezone the schedule is evaluated in.
	Timezone string

	// RunTimeout bounds a single poll run. The run's context is cancelled
	// once it elapses; feeds still in flight fail as timeouts.
	RunTimeout time.Duration

	HealthPort  int
	MetricsPort int
}

// DefaultConfig returns the worker defaults.
// 3時間ごと (JST) に実行する。
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "0 */3 * * *",
		Timezone:     "Asia/Tokyo",
		RunTimeout:   30 * time.Minute,
		HealthPort:   9091,
		MetricsPort:  9090,
	}
}

// Validate checks every field and reports all failures at once.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.RunTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if len(errs) == 0 && c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ, both %d", c.HealthPort))
	}

	return errors.Join(errs...)
}

// Location resolves Timezone. Falls back to UTC for an unknown name.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads worker configuration from environment variables.
//
// Fail-open: an invalid value is replaced with its default, logged as a
// warning and counted in metrics. The returned configuration is always valid.
// A port clash after loading resets both ports to their defaults.
func LoadConfigFromEnv(logger *slog.Logger, metrics *config.ConfigMetrics) WorkerConfig {
	defaults := DefaultConfig()
	c := config.NewCollector(logger, metrics)

	cfg := WorkerConfig{
		CronSchedule: config.Track(c, "cron_schedule",
			config.LoadEnvWithFallback("CRON_SCHEDULE", defaults.CronSchedule, config.ValidateCronSchedule)),
		Timezone: config.Track(c, "timezone",
			config.LoadEnvWithFallback("WORKER_TIMEZONE", defaults.Timezone, config.ValidateTimezone)),
		RunTimeout: config.Track(c, "run_timeout", config.LoadEnvDuration("RUN_TIMEOUT", defaults.RunTimeout,
			func(d time.Duration) error { return config.ValidateDuration(d, time.Minute, 4*time.Hour) })),
		HealthPort: config.Track(c, "health_port", config.LoadEnvInt("WORKER_HEALTH_PORT", defaults.HealthPort,
			func(v int) error { return config.ValidateIntRange(v, 1024, 65535) })),
		MetricsPort: config.Track(c, "metrics_port", config.LoadEnvInt("METRICS_PORT", defaults.MetricsPort,
			func(v int) error { return config.ValidateIntRange(v, 1024, 65535) })),
	}

	if cfg.HealthPort == cfg.MetricsPort {
		config.Track(c, "metrics_port", config.LoadResult[int]{
			Value:           defaults.MetricsPort,
			Warning:         fmt.Sprintf("port %d is shared by health and metrics servers, falling back to defaults", cfg.HealthPort),
			FallbackApplied: true,
		})
		cfg.HealthPort = defaults.HealthPort
		cfg.MetricsPort = defaults.MetricsPort
	}

	c.Finish()
	return cfg
}
