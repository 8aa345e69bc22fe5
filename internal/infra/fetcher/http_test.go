package fetcher_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mext-feed/internal/infra/fetcher"
	"mext-feed/internal/resilience/retry"
	"mext-feed/internal/usecase/fetch"
)

const rssBody = `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title></channel></rss>`

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != fetcher.DefaultUserAgent {
			t.Errorf("expected User-Agent=%q, got %q", fetcher.DefaultUserAgent, r.Header.Get("User-Agent"))
		}
		if r.Header.Get("Accept") != fetcher.AcceptHeader {
			t.Errorf("unexpected Accept header %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssBody))
	}))
	defer server.Close()

	f := fetcher.NewHTTPFetcher(fetcher.DefaultConfig())
	data, err := f.Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, rssBody, string(data))
}

func TestFetch_InvalidURL(t *testing.T) {
	f := fetcher.NewHTTPFetcher(fetcher.DefaultConfig())

	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "not-a-valid-url"},
		{"ftp scheme", "ftp://example.com/feed.xml"},
		{"no host", "http:///path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), tt.url)
			require.Error(t, err)
			assert.True(t, errors.Is(err, fetch.ErrInvalidURL), "got %v", err)
		})
	}
}

func TestFetch_HTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	f := fetcher.NewHTTPFetcher(fetcher.DefaultConfig())
	_, err := f.Fetch(context.Background(), server.URL)

	var httpErr *retry.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *retry.HTTPError, got %v", err)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	cfg := fetcher.DefaultConfig()
	cfg.Timeout = 100 * time.Millisecond
	f := fetcher.NewHTTPFetcher(cfg)

	start := time.Now()
	_, err := f.Fetch(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, fetch.ErrTimeout), "got %v", err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetch_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	cfg := fetcher.DefaultConfig()
	cfg.MaxBodySize = 1024
	f := fetcher.NewHTTPFetcher(cfg)

	_, err := f.Fetch(context.Background(), server.URL)
	assert.True(t, errors.Is(err, fetch.ErrBodyTooLarge), "got %v", err)
}

func TestFetch_TooManyRedirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/loop", http.StatusFound)
	}))
	defer server.Close()

	cfg := fetcher.DefaultConfig()
	cfg.MaxRedirects = 2
	f := fetcher.NewHTTPFetcher(cfg)

	_, err := f.Fetch(context.Background(), server.URL)
	assert.True(t, errors.Is(err, fetch.ErrTooManyRedirects), "got %v", err)
}

func TestFetch_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := fetcher.NewHTTPFetcher(fetcher.DefaultConfig())
	_, err := f.Fetch(context.Background(), server.URL)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_RetriesTransientFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff waits ~2s")
	}

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(rssBody))
	}))
	defer server.Close()

	cfg := fetcher.DefaultConfig()
	cfg.MaxAttempts = 2
	f := fetcher.NewHTTPFetcher(cfg)

	data, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, rssBody, string(data))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssBody))
	}))
	defer server.Close()

	cfg := fetcher.DefaultConfig()
	cfg.RateLimit = 10 // one request per 100ms, burst 1
	f := fetcher.NewHTTPFetcher(cfg)

	start := time.Now()
	for range 3 {
		_, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestFetch_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssBody))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := fetcher.NewHTTPFetcher(fetcher.DefaultConfig())
	_, err := f.Fetch(ctx, server.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.False(t, errors.Is(err, fetch.ErrTimeout))
}
