package analytics

import (
	"math"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// QuadrantShare is one quadrant's slice of the classified customers.
type QuadrantShare struct {
	Quadrant model.Quadrant `json:"quadrant"`
	Count    int            `json:"count"`
	Percent  float64        `json:"percent"` // 0-100, one decimal
}

// shareOrder fixes the reporting order: base quadrants first, then the
// special zones, then fence-sitters.
var shareOrder = []model.Quadrant{
	model.QuadrantLoyalists,
	model.QuadrantMercenaries,
	model.QuadrantHostages,
	model.QuadrantDefectors,
	model.QuadrantApostles,
	model.QuadrantNearApostles,
	model.QuadrantTerrorists,
	model.QuadrantNone,
}

// QuadrantShares classifies every non-excluded customer through the
// assigner and tallies per-quadrant counts and percentages. The four base
// quadrants always appear, even empty; zones and fence-sitters appear only
// when occupied.
func QuadrantShares(data []model.DataPoint, assigner grid.Assigner) []QuadrantShare {
	counts := make(map[model.Quadrant]int)
	total := 0
	for _, p := range data {
		if p.Excluded {
			continue
		}
		counts[assigner.QuadrantFor(p)]++
		total++
	}

	var shares []QuadrantShare
	for _, q := range shareOrder {
		n := counts[q]
		if n == 0 && !baseQuadrant(q) {
			continue
		}
		pct := 0.0
		if total > 0 {
			pct = math.Round(float64(n)/float64(total)*1000) / 10
		}
		shares = append(shares, QuadrantShare{Quadrant: q, Count: n, Percent: pct})
	}
	return shares
}

func baseQuadrant(q model.Quadrant) bool {
	switch q {
	case model.QuadrantLoyalists, model.QuadrantMercenaries, model.QuadrantHostages, model.QuadrantDefectors:
		return true
	}
	return false
}

// DatasetStats bundles every per-dataset statistic the dashboard shows.
type DatasetStats struct {
	Customers      int                 `json:"customers"`
	Excluded       int                 `json:"excluded"`
	Satisfaction   *Distribution       `json:"-"`
	Loyalty        *Distribution       `json:"-"`
	Quadrants      []QuadrantShare     `json:"quadrants"`
	Recommendation RecommendationScore `json:"recommendation"`
}

// Compute derives the full statistics bundle for one data set. Excluded
// customers are counted but contribute to nothing else.
func Compute(sat, loy grid.Scale, data []model.DataPoint, assigner grid.Assigner) (*DatasetStats, error) {
	stats := &DatasetStats{}
	var satVals, loyVals []float64
	for _, p := range data {
		if p.Excluded {
			stats.Excluded++
			continue
		}
		stats.Customers++
		satVals = append(satVals, p.Satisfaction)
		loyVals = append(loyVals, p.Loyalty)
	}

	var err error
	if stats.Satisfaction, err = NewDistribution(sat, satVals); err != nil {
		return nil, err
	}
	if stats.Loyalty, err = NewDistribution(loy, loyVals); err != nil {
		return nil, err
	}
	stats.Quadrants = QuadrantShares(data, assigner)
	stats.Recommendation = Recommendation(loy, data)
	return stats, nil
}
