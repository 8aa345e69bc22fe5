// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for the patterns used throughout the poller.
//
// Key features:
//   - JSON (default) and text output formats, selected by LOG_FORMAT
//   - Configurable log levels via LOG_LEVEL
//   - Run ID propagation so every line of one run can be correlated
//   - Context-aware logging
//
// Example usage:
//
//	logger := logging.NewLogger(os.Stderr)
//	ctx, logger := logging.WithRunID(ctx, logger)
//	logger.Info("run started")
package logging
