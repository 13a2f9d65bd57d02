// Package api exposes the read-only HTTP view over the price store.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tmasselin/fuelwatch/internal/metrics"
	"github.com/tmasselin/fuelwatch/internal/store"
)

// History is the read-only store surface the HTTP view consumes.
type History interface {
	GetHistory() []store.PriceEntry
	GetLatest() (store.PriceEntry, bool)
	Len() int
}

// Opener returns a fresh store snapshot. Handlers re-open per request so
// a concurrently running fetch process shows up without a restart; the
// store file itself is the only shared state.
type Opener func() (History, error)

// Server wires HTTP handlers to the store.
type Server struct {
	router chi.Router
	open   Opener
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(open Opener, logger *zap.Logger) *Server {
	s := &Server{
		open:   open,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/", s.dashboard)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/prices", s.listPrices)
		r.Get("/prices/latest", s.latestPrice)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if _, err := s.open(); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) listPrices(w http.ResponseWriter, _ *http.Request) {
	h, err := s.open()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to open price store")
		return
	}
	metrics.SetStoreEntries(h.Len())
	s.writeJSON(w, http.StatusOK, h.GetHistory())
}

func (s *Server) latestPrice(w http.ResponseWriter, _ *http.Request) {
	h, err := s.open()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to open price store")
		return
	}
	latest, ok := h.GetLatest()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no price entries yet")
		return
	}
	s.writeJSON(w, http.StatusOK, latest)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to write JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("Request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Panic recovered", zap.Any("panic", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
