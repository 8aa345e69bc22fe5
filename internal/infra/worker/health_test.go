package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHealthServer() *HealthServer {
	return NewHealthServer("127.0.0.1:0", slog.New(slog.DiscardHandler))
}

func getJSON(t *testing.T, h http.Handler, path string) (int, healthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, body
}

func TestHealthServer_Liveness(t *testing.T) {
	server := newTestHealthServer()

	code, body := getJSON(t, server.Handler(), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)
	assert.Nil(t, body.LastRun)
}

func TestHealthServer_Readiness(t *testing.T) {
	server := newTestHealthServer()
	h := server.Handler()

	code, body := getJSON(t, h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body.Status)

	server.SetReady(true)
	code, body = getJSON(t, h, "/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	server.SetReady(false)
	code, _ = getJSON(t, h, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHealthServer_RecordRun(t *testing.T) {
	server := newTestHealthServer()
	server.SetReady(true)

	finished := time.Date(2024, 3, 10, 3, 0, 0, 0, time.UTC)
	server.RecordRun(RunStatus{FinishedAt: finished, OK: true, SnapshotItems: 42, FeedsFailed: 1})

	_, body := getJSON(t, server.Handler(), "/health/ready")
	require.NotNil(t, body.LastRun)
	assert.True(t, body.LastRun.OK)
	assert.Equal(t, 42, body.LastRun.SnapshotItems)
	assert.Equal(t, 1, body.LastRun.FeedsFailed)
	assert.True(t, finished.Equal(body.LastRun.FinishedAt))
}

func TestHealthServer_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHealthServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthServer_StartAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	server := NewHealthServer(addr, slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, http.ErrServerClosed))
	case <-time.After(6 * time.Second):
		t.Fatal("health server did not stop")
	}
}
