// Package api exposes the analysis engine, datasets and runs over HTTP for
// the dashboard.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/monitoring"
	"github.com/JaimeV365/segmentor-sub003/internal/pipeline"
	"github.com/JaimeV365/segmentor-sub003/internal/store"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	store     store.Store
	pipe      *pipeline.Pipeline
	collector *monitoring.Collector
	log       *zap.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(st store.Store, pipe *pipeline.Pipeline, collector *monitoring.Collector) *Handlers {
	return &Handlers{
		store:     st,
		pipe:      pipe,
		collector: collector,
		log:       zap.L().With(zap.String("component", "api")),
	}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data) //nolint:errcheck
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errStatus maps storage errors onto HTTP status codes.
func errStatus(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// queryInt reads an integer query parameter, falling back on absence or
// garbage.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// HealthCheck reports liveness and store reachability.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Warn("health check store ping failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"store":  "down",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"store":  "up",
	})
}

// GetStatus returns the monitoring snapshot.
//
//	GET /api/v1/status?lookback_hours=24
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	lookback := queryInt(r, "lookback_hours", 24)
	snapshot, err := h.collector.Collect(r.Context(), lookback)
	if err != nil {
		h.log.Error("status collection failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "status collection failed")
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}
