package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HealthServer serves the worker probes:
//   - GET /health: liveness, always 200
//   - GET /health/ready: 200 once SetReady(true) was called, 503 otherwise
//
// Both responses carry the outcome of the most recent poll run when one exists.
type HealthServer struct {
	addr    string
	logger  *slog.Logger
	isReady atomic.Bool
	server  *http.Server

	mu      sync.RWMutex
	lastRun *RunStatus
}

// RunStatus summarises the latest poll run for the probes.
type RunStatus struct {
	FinishedAt    time.Time `json:"finished_at"`
	OK            bool      `json:"ok"`
	SnapshotItems int       `json:"snapshot_items"`
	FeedsFailed   int       `json:"feeds_failed"`
	Error         string    `json:"error,omitempty"`
}

type healthResponse struct {
	Status  string     `json:"status"`
	LastRun *RunStatus `json:"last_run,omitempty"`
}

// NewHealthServer creates a health server listening on addr. It starts not ready.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	return &HealthServer{
		addr:   addr,
		logger: logger,
	}
}

// Handler returns the probe mux. Start serves it; tests may mount it directly.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleLiveness)
	mux.HandleFunc("GET /health/ready", h.handleReadiness)
	return mux
}

// Start serves the probes until ctx is cancelled, then shuts down with a
// 5-second grace period. It returns http.ErrServerClosed on graceful shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", h.addr))
		if err := h.server.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Error("health server shutdown failed", slog.Any("error", err))
			return err
		}
		h.logger.Info("health server stopped")
		return http.ErrServerClosed

	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("health server failed", slog.Any("error", err))
		}
		return err
	}
}

// SetReady flips the readiness probe.
func (h *HealthServer) SetReady(ready bool) {
	h.isReady.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

// RecordRun stores the outcome of a poll run.
func (h *HealthServer) RecordRun(status RunStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastRun = &status
}

func (h *HealthServer) snapshot() *RunStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.lastRun == nil {
		return nil
	}
	s := *h.lastRun
	return &s
}

func (h *HealthServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusOK, healthResponse{Status: "ok", LastRun: h.snapshot()})
}

func (h *HealthServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if !h.isReady.Load() {
		h.write(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
		return
	}
	h.write(w, http.StatusOK, healthResponse{Status: "ok", LastRun: h.snapshot()})
}

func (h *HealthServer) write(w http.ResponseWriter, code int, body healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode health response", slog.Any("error", err))
	}
}
