// Package server is the thin HTTP layer over the answering pipeline:
// request parsing, error-to-status mapping, and read-side stats. All
// retrieval and generation logic lives in internal/usecase.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"souschef/internal/adapter/gateway"
	"souschef/internal/domain"
	"souschef/internal/usecase"
)

const (
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	ReadHeaderTimeout = 10 * time.Second
	ReadTimeout       = 30 * time.Second
	// WriteTimeout covers a full gateway round trip on a cold index.
	WriteTimeout = 120 * time.Second
	IdleTimeout  = 120 * time.Second
)

// Server exposes the answering pipeline over HTTP.
type Server struct {
	answerer *usecase.Answerer
	manager  *usecase.Manager
	logger   *slog.Logger
	mux      *http.ServeMux
}

func New(answerer *usecase.Answerer, manager *usecase.Manager, logger *slog.Logger) *Server {
	s := &Server{
		answerer: answerer,
		manager:  manager,
		logger:   logger.With("component", "http"),
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /api/ask", s.handleAsk)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	return s
}

// Handler returns the routed handler with middleware applied.
// Middleware order: recovery → logging → mux.
func (s *Server) Handler() http.Handler {
	return s.recoveryMiddleware(s.loggingMiddleware(s.mux))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	answer, err := s.answerer.Answer(r.Context(), req.Prompt)
	if err != nil {
		s.writeAnswerError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, answer)
}

// statsResponse is the index summary plus answer-cache occupancy.
type statsResponse struct {
	domain.Stats
	AnswerCacheSize int `json:"answer_cache_size"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, statsResponse{
		Stats:           s.manager.Stats(),
		AnswerCacheSize: s.answerer.CacheSize(),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"index":  s.manager.State(),
	})
}

// writeAnswerError maps the error taxonomy onto status codes: input
// errors are the client's fault, gateway failures are a bad upstream,
// everything else is ours.
func (s *Server) writeAnswerError(w http.ResponseWriter, err error) {
	var apiErr *gateway.APIError
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		s.writeError(w, http.StatusBadRequest, "prompt must not be empty")
	case errors.As(err, &apiErr):
		s.logger.Error("gateway call failed", "status", apiErr.StatusCode, "error", apiErr.Message)
		s.writeError(w, http.StatusBadGateway, "upstream gateway error")
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Status is already sent; nothing left to tell the client.
		s.logger.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}
