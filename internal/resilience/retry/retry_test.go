package retry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mext-feed/internal/observability/logging"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff_Success(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithBackoff_SuccessAfterRetry(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithBackoff_LogsToContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With(slog.String("feed_id", "news"))
	ctx := logging.WithLogger(context.Background(), logger)

	attempts := 0
	err := WithBackoff(ctx, fastConfig(2), func() error {
		attempts++
		if attempts < 2 {
			return &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"operation failed, retrying"`)
	assert.Contains(t, buf.String(), `"msg":"operation succeeded after retry"`)
	assert.Contains(t, buf.String(), `"feed_id":"news"`)
}

func TestWithBackoff_MaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	testErr := &HTTPError{StatusCode: 500, Message: "Server Error"}
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return testErr
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, testErr)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
}

func TestWithBackoff_SingleAttemptReturnsErrorUnwrapped(t *testing.T) {
	attempts := 0
	testErr := &HTTPError{StatusCode: 500, Message: "Server Error"}
	err := WithBackoff(context.Background(), FeedFetchConfig(1), func() error {
		attempts++
		return testErr
	})

	assert.Equal(t, 1, attempts)
	assert.Same(t, testErr, err)
}

func TestWithBackoff_NonRetryableError(t *testing.T) {
	attempts := 0
	testErr := &HTTPError{StatusCode: 404, Message: "Not Found"}
	err := WithBackoff(context.Background(), fastConfig(5), func() error {
		attempts++
		return testErr
	})

	assert.Equal(t, 1, attempts)
	assert.Same(t, testErr, err)
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.InitialDelay = time.Second

	attempts := 0
	err := WithBackoff(ctx, cfg, func() error {
		attempts++
		cancel()
		return &HTTPError{StatusCode: 502, Message: "Bad Gateway"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "retry aborted")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "wrapped canceled", err: fmt.Errorf("get: %w", context.Canceled), want: false},
		{name: "connection refused", err: syscall.ECONNREFUSED, want: true},
		{name: "connection reset", err: fmt.Errorf("read: %w", syscall.ECONNRESET), want: true},
		{name: "500", err: &HTTPError{StatusCode: 500}, want: true},
		{name: "503", err: &HTTPError{StatusCode: 503}, want: true},
		{name: "429", err: &HTTPError{StatusCode: 429}, want: true},
		{name: "408", err: &HTTPError{StatusCode: 408}, want: true},
		{name: "404", err: &HTTPError{StatusCode: 404}, want: false},
		{name: "403", err: &HTTPError{StatusCode: 403}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestFeedFetchConfig(t *testing.T) {
	assert.Equal(t, 1, FeedFetchConfig(0).MaxAttempts)
	assert.Equal(t, 1, FeedFetchConfig(1).MaxAttempts)
	assert.Equal(t, 3, FeedFetchConfig(3).MaxAttempts)
	assert.LessOrEqual(t, FeedFetchConfig(3).InitialDelay, FeedFetchConfig(3).MaxDelay)
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{StatusCode: 503, Message: "503 Service Unavailable"}
	assert.Equal(t, "HTTP 503: 503 Service Unavailable", err.Error())
}

func TestAddJitter(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		got := addJitter(base, 0.1)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, base+10*time.Millisecond)
	}
	assert.Equal(t, base, addJitter(base, 0))
	assert.LessOrEqual(t, addJitter(base, 5), 2*base)
}
