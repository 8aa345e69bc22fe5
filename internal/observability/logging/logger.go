package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// NewLogger creates a structured logger writing to w.
// LOG_FORMAT=text selects the text handler; anything else yields JSON.
// LOG_LEVEL accepts debug, info, warn, error (default: info).
func NewLogger(w io.Writer) *slog.Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	opts := &slog.HandlerOptions{
		Level: level,
		// Add source code location only when debugging
		AddSource: level <= slog.LevelDebug,
	}

	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ParseLevel maps a LOG_LEVEL value to a slog.Level; unknown values map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRunID generates a new run ID, attaches it to the logger, and stores both
// in the returned context.
func WithRunID(ctx context.Context, logger *slog.Logger) (context.Context, *slog.Logger) {
	runID := uuid.NewString()
	logger = logger.With(slog.String("run_id", runID))
	ctx = context.WithValue(ctx, runIDContextKey, runID)
	return WithLogger(ctx, logger), logger
}

// RunIDFromContext returns the run ID stored by WithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDContextKey).(string); ok {
		return id
	}
	return ""
}

// FromContext retrieves the logger from the context, or returns the default logger if not found.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const (
	loggerContextKey contextKey = "logger"
	runIDContextKey  contextKey = "run_id"
)
