package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/balchk/pkg/checker"
	"github.com/ogulcanaydogan/balchk/pkg/model"
	"github.com/ogulcanaydogan/balchk/pkg/portal"
)

// Server exposes health, state, and an on-demand check over HTTP.
type Server struct {
	checker *checker.Checker
	creds   model.Credentials
	mux     *http.ServeMux
	logger  *slog.Logger
}

// NewServer creates an API server.
func NewServer(c *checker.Checker, creds model.Credentials, logger *slog.Logger) *Server {
	s := &Server{
		checker: c,
		creds:   creds,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/state", s.handleState)
	s.mux.HandleFunc("POST /api/v1/check", s.handleCheck)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	state, err := s.checker.State(ctx)
	if err != nil {
		s.logger.Error("load state", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if state == nil {
		http.Error(w, "no check recorded yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	result, err := s.checker.Run(ctx, s.creds)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, portal.ErrAuthentication):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, portal.ErrParse), errors.Is(err, portal.ErrTransport):
		s.logger.Warn("check failed", "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		s.logger.Error("check failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
