package api

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/proximity"
)

// oneShotRequest is a self-contained analysis: grid settings plus the
// customer points, nothing stored.
type oneShotRequest struct {
	SatisfactionScale  string            `json:"satisfaction_scale"`
	LoyaltyScale       string            `json:"loyalty_scale"`
	Midpoint           *model.Midpoint   `json:"midpoint,omitempty"`
	ApostlesZoneSize   int               `json:"apostles_zone_size,omitempty"`
	TerroristsZoneSize int               `json:"terrorists_zone_size,omitempty"`
	ShowSpecialZones   bool              `json:"show_special_zones,omitempty"`
	ShowNearApostles   bool              `json:"show_near_apostles,omitempty"`
	Threshold          float64           `json:"threshold,omitempty"`
	Premium            bool              `json:"premium,omitempty"`
	Points             []model.DataPoint `json:"points"`
}

// AnalyzeOneShot classifies a posted point set without touching storage.
// Useful for what-if runs against settings that differ from any dataset.
//
//	POST /api/v1/analyze
func (h *Handlers) AnalyzeOneShot(w http.ResponseWriter, r *http.Request) {
	var req oneShotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Points) == 0 {
		respondError(w, http.StatusBadRequest, "points are required")
		return
	}

	sat, err := grid.ParseScale(req.SatisfactionScale)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid satisfaction_scale: "+req.SatisfactionScale)
		return
	}
	loy, err := grid.ParseScale(req.LoyaltyScale)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid loyalty_scale: "+req.LoyaltyScale)
		return
	}
	mid := grid.DefaultMidpoint(sat, loy)
	if req.Midpoint != nil {
		mid = *req.Midpoint
	}
	apostles, terrorists := req.ApostlesZoneSize, req.TerroristsZoneSize
	if apostles == 0 {
		apostles = 1
	}
	if terrorists == 0 {
		terrorists = 1
	}

	classifier, err := proximity.NewClassifier(
		sat.String(), loy.String(), mid, apostles, terrorists,
		proximity.WithLogger(h.log))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	assigner := grid.NewStandardAssigner(mid, classifier.Zones(),
		req.ShowSpecialZones, req.ShowNearApostles)
	result := classifier.AnalyzeProximity(req.Points, assigner, proximity.AnalyzeOptions{
		IsPremium:        req.Premium,
		Threshold:        req.Threshold,
		ShowSpecialZones: req.ShowSpecialZones,
		ShowNearApostles: req.ShowNearApostles,
	})
	respondJSON(w, http.StatusOK, result)
}
