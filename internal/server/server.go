// Package server exposes clustering runs over HTTP.
//
// POST /api/runs accepts a run request. Clients sending
// "Accept: text/event-stream" receive progress events followed by one
// success or error event; everyone else receives the terminal message as a
// single JSON document. Each request dispatches its own independent run.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/chriscorrea/dendro/internal/config"
	"github.com/chriscorrea/dendro/internal/pipeline"
	"github.com/chriscorrea/dendro/internal/runerr"
)

// RunIDHeader carries the id assigned to each run.
const RunIDHeader = "X-Run-ID"

// Server handles run requests.
type Server struct {
	defaults pipeline.Options
	maxBody  int64
	router   chi.Router
	started  time.Time
}

// New builds a Server from cfg. Request options are layered over cfg.Defaults.
func New(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		defaults: cfg.Defaults,
		maxBody:  cfg.MaxBodyBytes,
		router:   chi.NewRouter(),
		started:  time.Now(),
	}
	if s.maxBody <= 0 {
		s.maxBody = config.DefaultMaxBodyBytes
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(logRequests)

	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/runs", s.handleRun)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := uuid.NewString()
	w.Header().Set(RunIDHeader, runID)
	log := slog.With("runId", runID)

	req, status, err := s.decodeRequest(w, r)
	if err != nil {
		log.Debug("Rejected run request", "error", err)
		writeJSON(w, status, pipeline.Message{Type: pipeline.TypeError, Error: err.Error()})
		return
	}
	log.Debug("Run accepted", "mode", req.Mode, "textLength", len(req.Text))

	if wantsStream(r) {
		s.stream(w, r, req, log)
		return
	}

	for m := range pipeline.Dispatch(req) {
		switch m.Type {
		case pipeline.TypeSuccess:
			writeJSON(w, http.StatusOK, m)
			return
		case pipeline.TypeError:
			writeJSON(w, StatusFor(m.Kind), m)
			return
		}
	}
}

// decodeRequest parses the body and layers its options over the server defaults.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, int, error) {
	var req pipeline.Request
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return req, http.StatusBadRequest, fmt.Errorf("read request body: %w", err)
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err)
	}

	var opts pipeline.Options
	if req.Options != nil {
		opts = req.Options.WithDefaults(s.defaults)
	} else {
		opts = s.defaults
	}
	req.Options = &opts
	return req, 0, nil
}

// stream writes each message of the run as a Server-Sent Event named after its type.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, req pipeline.Request, log *slog.Logger) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, pipeline.Message{Type: pipeline.TypeError, Error: "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	msgs := pipeline.Dispatch(req)
	for {
		select {
		case <-r.Context().Done():
			// the run finishes on its own; its buffered messages are dropped
			log.Debug("Client disconnected before the run finished")
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			if err := writeEvent(w, m); err != nil {
				log.Warn("Failed to write event", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, m pipeline.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", m.Type, data)
	return err
}

func wantsStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// StatusFor maps a failure kind to an HTTP status.
func StatusFor(kind string) int {
	switch kind {
	case runerr.KindInvalidRequest:
		return http.StatusBadRequest
	case runerr.KindInsufficientData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start))
	})
}
