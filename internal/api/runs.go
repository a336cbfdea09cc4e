package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/store"
)

// ListRuns returns analysis runs, newest first.
//
//	GET /api/v1/runs?dataset=&status=&limit=&offset=
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		DatasetID: r.URL.Query().Get("dataset"),
		Status:    model.RunStatus(r.URL.Query().Get("status")),
		Limit:     queryInt(r, "limit", 50),
		Offset:    queryInt(r, "offset", 0),
	}

	runs, err := h.store.ListRuns(r.Context(), filter)
	if err != nil {
		h.log.Error("list runs failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun returns one run with its full result.
//
//	GET /api/v1/runs/{runID}
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		respondError(w, errStatus(err), "run not found")
		return
	}
	respondJSON(w, http.StatusOK, run)
}
