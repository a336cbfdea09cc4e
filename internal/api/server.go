package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/JaimeV365/segmentor-sub003/internal/config"
	"github.com/JaimeV365/segmentor-sub003/internal/monitoring"
	"github.com/JaimeV365/segmentor-sub003/internal/pipeline"
	"github.com/JaimeV365/segmentor-sub003/internal/store"
)

// Server wraps the HTTP server with its router and timeouts.
type Server struct {
	cfg     config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer wires the handlers and routes.
func NewServer(cfg config.ServerConfig, st store.Store, pipe *pipeline.Pipeline, collector *monitoring.Collector) *Server {
	h := NewHandlers(st, pipe, collector)
	return &Server{
		cfg:     cfg,
		handler: setupRoutes(h, cfg.CORSOrigins),
	}
}

// ListenAndServe starts the server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.handler,
		ReadTimeout:       time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}
