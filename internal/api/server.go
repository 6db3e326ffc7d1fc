package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scamshield/honeypot/internal/processor"
)

// Server is the thin HTTP shell in front of the pipeline: routing, API-key
// auth and request validation only.
type Server struct {
	router *chi.Mux
	port   int
	apiKey string
	proc   *processor.Processor
	logger *slog.Logger
}

func NewServer(port int, apiKey string, proc *processor.Processor, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		apiKey: apiKey,
		proc:   proc,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/honeypot/status", s.status)
	router.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/honeypot", s.handleHoneypot)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// requireAPIKey fails closed: an unconfigured server key rejects everything.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			writeError(w, http.StatusInternalServerError, "server API key not configured")
			return
		}
		if r.Header.Get("x-api-key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHoneypot(w http.ResponseWriter, r *http.Request) {
	var req processor.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if req.Message.Sender != processor.SenderScammer && req.Message.Sender != processor.SenderUser {
		writeError(w, http.StatusBadRequest, "message.sender must be scammer or user")
		return
	}

	resp := s.proc.Process(r.Context(), &req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode response", "session_id", req.SessionID, "error", err)
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"agent":  "honeypot",
		"status": "active",
	})
}

func writeError(w http.ResponseWriter, code int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "error",
		"detail": detail,
	})
}
