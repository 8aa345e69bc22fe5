package config

import "log/slog"

// Collector records fallbacks while a component loads its configuration.
// Both logger and metrics may be nil.
type Collector struct {
	logger  *slog.Logger
	metrics *ConfigMetrics
	active  bool
}

// NewCollector returns a Collector reporting to logger and metrics.
func NewCollector(logger *slog.Logger, metrics *ConfigMetrics) *Collector {
	return &Collector{logger: logger, metrics: metrics}
}

// Track unwraps r, logging and counting the fallback when one was applied.
func Track[T any](c *Collector, field string, r LoadResult[T]) T {
	if !r.FallbackApplied {
		return r.Value
	}
	c.active = true
	if c.logger != nil {
		c.logger.Warn("Configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", r.Warning))
	}
	if c.metrics != nil {
		c.metrics.RecordFallback(field)
	}
	return r.Value
}

// Finish publishes the aggregate fallback state and the load timestamp.
// It reports whether any fallback was applied.
func (c *Collector) Finish() bool {
	if c.metrics != nil {
		c.metrics.SetFallbackActive(c.active)
		c.metrics.RecordLoadTimestamp()
	}
	return c.active
}
