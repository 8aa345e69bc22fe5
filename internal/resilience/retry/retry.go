// Package retry re-runs a failing feed request with exponential backoff and jitter.
// Only transient failures (timeouts, refused connections, 5xx, 408, 429) are retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"syscall"
	"time"

	"mext-feed/internal/observability/logging"
)

// Config holds the configuration for retry logic.
type Config struct {
	// MaxAttempts is the total number of calls, including the first one.
	// 1 disables retrying.
	MaxAttempts int

	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries
	MaxDelay time.Duration

	// Multiplier is the multiplier for exponential backoff
	Multiplier float64

	// JitterFraction is the fraction of delay to add as random jitter (0.0 to 1.0)
	JitterFraction float64
}

// FeedFetchConfig returns the backoff used for feed requests.
// maxAttempts below 1 is treated as 1.
func FeedFetchConfig(maxAttempts int) Config {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return Config{
		MaxAttempts:    maxAttempts,
		InitialDelay:   2 * time.Second,
		MaxDelay:       20 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// WithBackoff calls fn until it succeeds, returns a non-retryable error,
// the attempts are exhausted, or ctx is done.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	logger := logging.FromContext(ctx)
	var lastErr error
	delay := cfg.InitialDelay
	maxAttempts := max(cfg.MaxAttempts, 1)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("operation succeeded after retry", slog.Int("attempt", attempt))
			}
			return nil
		}

		if !IsRetryable(lastErr) || attempt == maxAttempts {
			break
		}

		logger.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", errors.Join(ctx.Err(), lastErr))
		}

		delay = addJitter(min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay), cfg.JitterFraction)
	}

	if maxAttempts > 1 && IsRetryable(lastErr) {
		return fmt.Errorf("max retry attempts (%d) exceeded: %w", maxAttempts, lastErr)
	}
	return lastErr
}

// IsRetryable determines if an error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// 呼び出し元のキャンセルはリトライしない
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode >= 500 && httpErr.StatusCode < 600:
			return true
		case httpErr.StatusCode == http.StatusTooManyRequests,
			httpErr.StatusCode == http.StatusRequestTimeout:
			return true
		}
	}

	return false
}

// HTTPError is a non-2xx feed response.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func addJitter(duration time.Duration, jitterFraction float64) time.Duration {
	if jitterFraction <= 0 {
		return duration
	}
	if jitterFraction > 1.0 {
		jitterFraction = 1.0
	}
	// #nosec G404 -- jitter does not need cryptographic randomness
	jitter := time.Duration(rand.Float64() * float64(duration) * jitterFraction)
	return duration + jitter
}
