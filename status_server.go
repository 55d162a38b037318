package testgate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// StatusServer exposes the suite's latest results over HTTP as JSON. It is
// a live status surface for watch and scheduled modes, not a report
// formatter: it simply reflects the most recent run.
//
// Routes:
//
//	GET /healthz              liveness probe
//	GET /status               latest run summary and per-case results
//	GET /status/{name}        one case's latest result
type StatusServer struct {
	suite  *Suite
	logger Logger
	addr   string

	mu      sync.Mutex
	srv     *http.Server
	running bool
}

// statusReport is the JSON shape of one run.
type statusReport struct {
	Suite   string        `json:"suite"`
	RunID   string        `json:"runId,omitempty"`
	Results []statusEntry `json:"results"`
}

type statusEntry struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// NewStatusServer creates a status server for the suite from cfg.
func NewStatusServer(suite *Suite, cfg StatusConfig, logger Logger) *StatusServer {
	if logger == nil {
		logger = NoopLogger{}
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8762"
	}
	return &StatusServer{
		suite:  suite,
		logger: logger,
		addr:   addr,
	}
}

// Handler returns the HTTP handler, usable directly in tests or behind an
// existing server.
func (ss *StatusServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		runID, results := ss.suite.Results()
		report := statusReport{
			Suite:   ss.suite.Name(),
			RunID:   runID,
			Results: make([]statusEntry, 0, len(results)),
		}
		for _, result := range results {
			report.Results = append(report.Results, toStatusEntry(result))
		}
		ss.writeJSON(w, http.StatusOK, report)
	})

	r.Get("/status/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		_, results := ss.suite.Results()
		for _, result := range results {
			if result.Name == name {
				ss.writeJSON(w, http.StatusOK, toStatusEntry(result))
				return
			}
		}
		http.NotFound(w, req)
	})

	return r
}

func toStatusEntry(result Result) statusEntry {
	entry := statusEntry{
		Name:       result.Name,
		Status:     string(result.Outcome.Status),
		DurationMs: result.Outcome.Duration.Milliseconds(),
	}
	if result.Outcome.Reason != nil {
		entry.Reason = result.Outcome.Reason.Error()
	}
	return entry
}

func (ss *StatusServer) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		ss.logger.Error("Failed to encode status response", "error", err)
	}
}

// Start begins serving in a background goroutine.
func (ss *StatusServer) Start(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.running {
		return ErrStatusServerAlreadyStarted
	}

	ss.srv = &http.Server{
		Addr:              ss.addr,
		Handler:           ss.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ss.running = true

	go func() {
		ss.logger.Info("Status server listening", "addr", ss.addr)
		if err := ss.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ss.logger.Error("Status server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (ss *StatusServer) Stop(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if !ss.running {
		return ErrStatusServerNotStarted
	}
	ss.running = false

	if err := ss.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("status server shutdown failed: %w", err)
	}
	return nil
}
