// Package server exposes the operational HTTP interface.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sports-iot/scorewatch/internal/metrics"
	"github.com/sports-iot/scorewatch/internal/scoreboard"
)

// StateFunc returns the currently tracked game records.
type StateFunc func() []scoreboard.GameRecord

// Server serves health, metrics, and the tracked-state endpoint.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// New builds the server. state may be nil, in which case /state serves an
// empty list.
func New(port int, state StateFunc, logger *zap.Logger) *Server {
	s := &Server{logger: logger.Named("server")}

	r := chi.NewRouter()
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/state", s.stateHandler(state))

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("ops server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ops server failed", zap.Error(err))
		}
	}()
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stateHandler(state StateFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		records := []scoreboard.GameRecord{}
		if state != nil {
			if snapshot := state(); snapshot != nil {
				records = snapshot
			}
		}
		s.writeJSON(w, http.StatusOK, records)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write response failed", zap.Error(err))
	}
}
