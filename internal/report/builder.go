// Package report assembles and renders customer-experience reports from a
// dataset, its analysis result and the derived statistics. Premium gating
// lives here: the engine always computes per-customer detail, and this
// package decides how much of it a report exposes.
package report

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/JaimeV365/segmentor-sub003/internal/analytics"
	"github.com/JaimeV365/segmentor-sub003/internal/grid"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// ReportData is the fully assembled report payload. It is JSON-shaped so
// the same structure feeds the liquid bindings and the XLSX export.
type ReportData struct {
	Dataset        Header                        `json:"dataset"`
	GeneratedAt    string                        `json:"generated_at"`
	Premium        bool                          `json:"premium"`
	Quadrants      []analytics.QuadrantShare     `json:"quadrants"`
	Recommendation analytics.RecommendationScore `json:"recommendation"`
	Satisfaction   AxisStats                     `json:"satisfaction"`
	Loyalty        AxisStats                     `json:"loyalty"`
	Proximity      ProximitySection              `json:"proximity"`
	Narrative      string                        `json:"narrative,omitempty"`
}

// Header identifies the dataset a report describes.
type Header struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	SatisfactionScale string         `json:"satisfaction_scale"`
	LoyaltyScale      string         `json:"loyalty_scale"`
	Midpoint          model.Midpoint `json:"midpoint"`
	Customers         int            `json:"customers"`
	Excluded          int            `json:"excluded"`
}

// AxisStats summarizes one axis distribution.
type AxisStats struct {
	Scale   string             `json:"scale"`
	Mean    float64            `json:"mean"`
	Median  float64            `json:"median"`
	Buckets []analytics.Bucket `json:"buckets"`
}

// ProximitySection is the engine output shaped for reporting: only
// relationships with matches appear, and per-customer lists survive only
// on premium datasets.
type ProximitySection struct {
	Available         bool                       `json:"available"`
	UnavailableReason string                     `json:"unavailable_reason,omitempty"`
	Threshold         float64                    `json:"threshold"`
	Summary           model.ProximitySummary     `json:"summary"`
	Relationships     []model.ProximityDetail    `json:"relationships,omitempty"`
	Crossroads        []model.CrossroadsCustomer `json:"crossroads,omitempty"`
}

// Input is everything Build needs. Narrative is optional and is dropped
// for non-premium datasets regardless of what the caller passes.
type Input struct {
	Dataset   model.Dataset
	Points    []model.DataPoint
	Result    *model.ProximityAnalysisResult
	Narrative string
	Now       time.Time
}

// Build assembles the report payload from one dataset and its analysis.
func Build(in Input) (*ReportData, error) {
	sat, err := grid.ParseScale(in.Dataset.SatisfactionScale)
	if err != nil {
		return nil, eris.Wrap(err, "report: satisfaction scale")
	}
	loy, err := grid.ParseScale(in.Dataset.LoyaltyScale)
	if err != nil {
		return nil, eris.Wrap(err, "report: loyalty scale")
	}
	zones, err := grid.NewZones(sat, loy, in.Dataset.Midpoint, in.Dataset.ApostlesZoneSize, in.Dataset.TerroristsZoneSize)
	if err != nil {
		return nil, eris.Wrap(err, "report: zones")
	}
	assigner := grid.NewStandardAssigner(in.Dataset.Midpoint, zones, in.Dataset.ShowSpecialZones, in.Dataset.ShowNearApostles)

	stats, err := analytics.Compute(sat, loy, in.Points, assigner)
	if err != nil {
		return nil, eris.Wrap(err, "report: statistics")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	data := &ReportData{
		Dataset: Header{
			ID:                in.Dataset.ID,
			Name:              in.Dataset.Name,
			SatisfactionScale: in.Dataset.SatisfactionScale,
			LoyaltyScale:      in.Dataset.LoyaltyScale,
			Midpoint:          in.Dataset.Midpoint,
			Customers:         stats.Customers,
			Excluded:          stats.Excluded,
		},
		GeneratedAt:    now.UTC().Format("2006-01-02 15:04 UTC"),
		Premium:        in.Dataset.Premium,
		Quadrants:      stats.Quadrants,
		Recommendation: stats.Recommendation,
		Satisfaction:   axisStats(stats.Satisfaction),
		Loyalty:        axisStats(stats.Loyalty),
		Proximity:      buildProximity(in.Result, in.Dataset.Premium),
	}
	if in.Dataset.Premium {
		data.Narrative = in.Narrative
	}
	return data, nil
}

func axisStats(d *analytics.Distribution) AxisStats {
	return AxisStats{
		Scale:   d.Scale().String(),
		Mean:    d.Mean(),
		Median:  d.Median(),
		Buckets: d.Buckets(),
	}
}

// buildProximity keeps the relationships that matched anyone. The engine
// reports zero-valued details for every analyzed relationship; a rendered
// report only shows the active ones.
func buildProximity(result *model.ProximityAnalysisResult, premium bool) ProximitySection {
	section := ProximitySection{}
	if result == nil {
		return section
	}

	section.Available = result.Settings.IsAvailable
	section.UnavailableReason = result.Settings.UnavailableReason
	section.Threshold = result.Settings.Threshold
	section.Summary = result.Summary

	for _, d := range result.Details {
		if d.CustomerCount == 0 {
			continue
		}
		if premium {
			d.Customers = append([]model.ProximityCustomer(nil), d.Customers...)
		} else {
			d.Customers = nil
		}
		section.Relationships = append(section.Relationships, d)
	}
	if premium {
		section.Crossroads = append([]model.CrossroadsCustomer(nil), result.Crossroads...)
	}
	return section
}
