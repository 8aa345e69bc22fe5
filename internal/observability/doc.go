// Package observability groups the logging, metrics, and tracing helpers used by
// the feed poller.
//
// Subpackages:
//   - logging: slog logger construction and context propagation (run id)
//   - metrics: Prometheus run metrics, textfile export for one-shot runs
//   - tracing: OpenTelemetry spans around runs and feeds
package observability
