// Package fetcher retrieves raw feed documents over HTTP.
package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"mext-feed/internal/observability/logging"
	"mext-feed/internal/resilience/retry"
	"mext-feed/internal/usecase/fetch"
)

// HTTPFetcher downloads feed documents.
//
// Every request carries the identifying User-Agent and an XML-favoring Accept
// header, is bounded by the configured timeout and body size, and is paced by
// an optional shared rate limiter.
//
// Thread safety: HTTPFetcher is safe for concurrent use.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	config  FetchConfig
}

// NewHTTPFetcher creates a new HTTPFetcher with the given configuration.
//
// Example:
//
//	f := fetcher.NewHTTPFetcher(fetcher.DefaultConfig())
//	data, err := f.Fetch(ctx, "https://www.mext.go.jp/b_menu/news/index.rdf")
func NewHTTPFetcher(config FetchConfig) *HTTPFetcher {
	f := &HTTPFetcher{config: config}

	if config.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	// The per-request context carries the timeout so it also bounds the body read.
	f.client = &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12, // Enforce TLS 1.2+
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", fetch.ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String()); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}

	return f
}

// Fetch returns the raw body of the feed at urlStr.
//
// Failures are returned, never panicked:
//   - fetch.ErrInvalidURL for malformed or non-http(s) URLs
//   - fetch.ErrTimeout when the request exceeds the timeout
//   - *retry.HTTPError for non-2xx statuses
//   - fetch.ErrBodyTooLarge when the body exceeds MaxBodySize
//
// Retryable failures are retried only when MaxAttempts > 1.
func (f *HTTPFetcher) Fetch(ctx context.Context, urlStr string) ([]byte, error) {
	if err := validateURL(urlStr); err != nil {
		return nil, err
	}

	var body []byte
	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(f.config.MaxAttempts), func() error {
		var err error
		body, err = f.doFetch(ctx, urlStr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *HTTPFetcher) doFetch(ctx context.Context, urlStr string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	// Apply per-request timeout from config
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", fetch.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", AcceptHeader)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		if f.timedOut(ctx, reqCtx, err) {
			return nil, fmt.Errorf("%w: request exceeded %v: %w", fetch.ErrTimeout, f.config.Timeout, err)
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	// Read response body with size limit
	limitedReader := io.LimitReader(resp.Body, f.config.MaxBodySize+1)
	data, err := io.ReadAll(limitedReader)
	if err != nil {
		if f.timedOut(ctx, reqCtx, err) {
			return nil, fmt.Errorf("%w: body read exceeded %v: %w", fetch.ErrTimeout, f.config.Timeout, err)
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(data)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("%w: response size exceeds limit %d bytes",
			fetch.ErrBodyTooLarge, f.config.MaxBodySize)
	}

	logging.FromContext(ctx).Debug("feed downloaded",
		slog.String("url", urlStr),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// timedOut reports whether the per-request deadline, not the caller, ended the request.
func (f *HTTPFetcher) timedOut(parent, reqCtx context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
