package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/pipeline"
)

// datasetRequest is the create/update payload. Scale strings are required;
// a missing midpoint defaults to the scale centers and zone sizes default
// to one cell.
type datasetRequest struct {
	Name               string          `json:"name"`
	SatisfactionScale  string          `json:"satisfaction_scale"`
	LoyaltyScale       string          `json:"loyalty_scale"`
	Midpoint           *model.Midpoint `json:"midpoint,omitempty"`
	ApostlesZoneSize   int             `json:"apostles_zone_size,omitempty"`
	TerroristsZoneSize int             `json:"terrorists_zone_size,omitempty"`
	ShowSpecialZones   bool            `json:"show_special_zones,omitempty"`
	ShowNearApostles   bool            `json:"show_near_apostles,omitempty"`
	Premium            bool            `json:"premium,omitempty"`
}

// apply validates the payload and folds it into d. It returns a
// human-readable message for the 400 response when the payload is invalid.
func (req *datasetRequest) apply(d *model.Dataset) string {
	if req.Name == "" {
		return "name is required"
	}
	sat, err := grid.ParseScale(req.SatisfactionScale)
	if err != nil {
		return "invalid satisfaction_scale: " + req.SatisfactionScale
	}
	loy, err := grid.ParseScale(req.LoyaltyScale)
	if err != nil {
		return "invalid loyalty_scale: " + req.LoyaltyScale
	}

	mid := grid.DefaultMidpoint(sat, loy)
	if req.Midpoint != nil {
		mid = *req.Midpoint
	}
	if err := grid.ValidateMidpoint(sat, loy, mid); err != nil {
		return err.Error()
	}

	apostles, terrorists := req.ApostlesZoneSize, req.TerroristsZoneSize
	if apostles == 0 {
		apostles = 1
	}
	if terrorists == 0 {
		terrorists = 1
	}
	if _, err := grid.NewZones(sat, loy, mid, apostles, terrorists); err != nil {
		return err.Error()
	}

	d.Name = req.Name
	d.SatisfactionScale = sat.String()
	d.LoyaltyScale = loy.String()
	d.Midpoint = mid
	d.ApostlesZoneSize = apostles
	d.TerroristsZoneSize = terrorists
	d.ShowSpecialZones = req.ShowSpecialZones
	d.ShowNearApostles = req.ShowNearApostles
	d.Premium = req.Premium
	return ""
}

// ListDatasets returns every dataset with its grid settings.
//
//	GET /api/v1/datasets
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.store.ListDatasets(r.Context())
	if err != nil {
		h.log.Error("list datasets failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "list datasets failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"datasets": datasets,
		"count":    len(datasets),
	})
}

// CreateDataset registers a new dataset.
//
//	POST /api/v1/datasets
func (h *Handlers) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var d model.Dataset
	if msg := req.apply(&d); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := h.store.CreateDataset(r.Context(), d)
	if err != nil {
		h.log.Error("create dataset failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "create dataset failed")
		return
	}
	h.log.Info("dataset created",
		zap.String("dataset_id", created.ID),
		zap.String("name", created.Name))
	respondJSON(w, http.StatusCreated, created)
}

// GetDataset returns one dataset by ID.
//
//	GET /api/v1/datasets/{datasetID}
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	d, err := h.store.GetDataset(r.Context(), id)
	if err != nil {
		respondError(w, errStatus(err), "dataset not found")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// UpdateDataset replaces a dataset's name and grid settings. Stored
// customers and past runs are untouched; the next analysis picks up the
// new settings.
//
//	PUT /api/v1/datasets/{datasetID}
func (h *Handlers) UpdateDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	d, err := h.store.GetDataset(r.Context(), id)
	if err != nil {
		respondError(w, errStatus(err), "dataset not found")
		return
	}

	var req datasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.apply(d); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.UpdateDataset(r.Context(), *d); err != nil {
		h.log.Error("update dataset failed", zap.String("dataset_id", id), zap.Error(err))
		respondError(w, errStatus(err), "update dataset failed")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// DeleteDataset removes a dataset with its customers and runs.
//
//	DELETE /api/v1/datasets/{datasetID}
func (h *Handlers) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	if err := h.store.DeleteDataset(r.Context(), id); err != nil {
		respondError(w, errStatus(err), "dataset not found")
		return
	}
	h.log.Info("dataset deleted", zap.String("dataset_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// analyzeRequest carries per-request overrides for a stored dataset's
// analysis. Pointer fields distinguish "not sent" from an explicit false.
type analyzeRequest struct {
	Threshold        float64 `json:"threshold,omitempty"`
	ShowSpecialZones *bool   `json:"show_special_zones,omitempty"`
	ShowNearApostles *bool   `json:"show_near_apostles,omitempty"`
}

// AnalyzeDataset runs the proximity analysis for a dataset and records the
// run. An empty body runs with the dataset's stored settings.
//
//	POST /api/v1/datasets/{datasetID}/analyze
func (h *Handlers) AnalyzeDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")

	var req analyzeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	run, err := h.pipe.Run(r.Context(), id, pipeline.Overrides{
		Threshold:        req.Threshold,
		ShowSpecialZones: req.ShowSpecialZones,
		ShowNearApostles: req.ShowNearApostles,
	})
	if err != nil {
		h.log.Error("analysis failed", zap.String("dataset_id", id), zap.Error(err))
		if run != nil {
			// Run record exists with the failure attached.
			respondJSON(w, http.StatusUnprocessableEntity, run)
			return
		}
		respondError(w, errStatus(err), "analysis failed")
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// GetGrid returns the dataset's grid overlay as GeoJSON: quadrant
// rectangles plus any enabled special zones.
//
//	GET /api/v1/datasets/{datasetID}/grid
func (h *Handlers) GetGrid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	d, err := h.store.GetDataset(r.Context(), id)
	if err != nil {
		respondError(w, errStatus(err), "dataset not found")
		return
	}

	sat, err := grid.ParseScale(d.SatisfactionScale)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "stored scale is invalid")
		return
	}
	loy, err := grid.ParseScale(d.LoyaltyScale)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "stored scale is invalid")
		return
	}
	zones, err := grid.NewZones(sat, loy, d.Midpoint, d.ApostlesZoneSize, d.TerroristsZoneSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "stored zone settings are invalid")
		return
	}

	fc := grid.Overlay(sat, loy, d.Midpoint, zones, d.ShowSpecialZones, d.ShowNearApostles)
	respondJSON(w, http.StatusOK, fc)
}
