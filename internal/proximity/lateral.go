package proximity

import (
	"math"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// lateralNeighbors lists the shared-edge neighbors of each base quadrant in
// a fixed order. Diagonally opposite quadrants are not lateral neighbors;
// the diagonal pass covers those.
var lateralNeighbors = map[model.Quadrant][]model.Quadrant{
	model.QuadrantLoyalists:   {model.QuadrantMercenaries, model.QuadrantHostages},
	model.QuadrantMercenaries: {model.QuadrantLoyalists, model.QuadrantDefectors},
	model.QuadrantHostages:    {model.QuadrantLoyalists, model.QuadrantDefectors},
	model.QuadrantDefectors:   {model.QuadrantMercenaries, model.QuadrantHostages},
}

// LateralResult classifies one point against its lateral quadrant
// boundaries.
type LateralResult struct {
	// MinDistance is the smallest boundary distance among the reachable
	// neighbors; +Inf when the quadrant has no lateral neighbors.
	MinDistance float64
	// Distances holds the boundary distance toward each reachable neighbor.
	Distances map[model.Quadrant]float64
	// Targets lists the neighbors whose boundary lies within the threshold,
	// in the fixed neighbor order.
	Targets []model.Quadrant
	// RiskLevel grades MinDistance against the threshold.
	RiskLevel model.RiskLevel
}

// LateralProximityCalculator measures a point's distance to the lateral
// quadrant boundaries around it.
type LateralProximityCalculator struct {
	mid model.Midpoint
}

// NewLateralProximityCalculator builds a calculator for one midpoint.
func NewLateralProximityCalculator(mid model.Midpoint) *LateralProximityCalculator {
	return &LateralProximityCalculator{mid: mid}
}

// Classify computes the point's distance toward each lateral neighbor of its
// quadrant, the neighbors within the threshold (inclusive), and the risk
// level of the closest boundary. Distances are clamped at zero so a point
// sitting on a midline counts as touching the boundary.
func (c *LateralProximityCalculator) Classify(p model.DataPoint, quadrant model.Quadrant, threshold float64) LateralResult {
	neighbors := lateralNeighbors[quadrant]
	res := LateralResult{
		MinDistance: math.Inf(1),
		Distances:   make(map[model.Quadrant]float64, len(neighbors)),
		RiskLevel:   model.RiskLow,
	}

	for _, target := range neighbors {
		d := c.boundaryDistance(p, quadrant, target)
		res.Distances[target] = d
		if d < res.MinDistance {
			res.MinDistance = d
		}
		if d <= threshold {
			res.Targets = append(res.Targets, target)
		}
	}

	if len(neighbors) > 0 && threshold > 0 {
		res.RiskLevel = riskLevelForRatio(res.MinDistance / threshold)
	}
	return res
}

// boundaryDistance is how far the point is from the midline separating its
// quadrant from the target. Crossing into mercenaries or defectors from
// above means dropping below the loyalty midline; crossing between the
// left and right halves means passing the satisfaction midline.
func (c *LateralProximityCalculator) boundaryDistance(p model.DataPoint, from, to model.Quadrant) float64 {
	var d float64
	switch {
	case from == model.QuadrantLoyalists && to == model.QuadrantMercenaries:
		d = p.Loyalty - c.mid.Loy
	case from == model.QuadrantLoyalists && to == model.QuadrantHostages:
		d = p.Satisfaction - c.mid.Sat
	case from == model.QuadrantMercenaries && to == model.QuadrantLoyalists:
		d = c.mid.Loy - p.Loyalty
	case from == model.QuadrantMercenaries && to == model.QuadrantDefectors:
		d = p.Satisfaction - c.mid.Sat
	case from == model.QuadrantHostages && to == model.QuadrantLoyalists:
		d = c.mid.Sat - p.Satisfaction
	case from == model.QuadrantHostages && to == model.QuadrantDefectors:
		d = p.Loyalty - c.mid.Loy
	case from == model.QuadrantDefectors && to == model.QuadrantMercenaries:
		d = c.mid.Sat - p.Satisfaction
	case from == model.QuadrantDefectors && to == model.QuadrantHostages:
		d = c.mid.Loy - p.Loyalty
	default:
		return math.Inf(1)
	}
	return math.Max(0, d)
}

// riskLevelForRatio grades a distance-to-threshold ratio: at or below half
// the threshold is HIGH, at or below 0.8 is MODERATE, everything further is
// LOW.
func riskLevelForRatio(ratio float64) model.RiskLevel {
	switch {
	case ratio <= 0.5:
		return model.RiskHigh
	case ratio <= 0.8:
		return model.RiskModerate
	default:
		return model.RiskLow
	}
}

// riskScoreForRatio maps a distance-to-threshold ratio onto 0-100: touching
// the boundary scores 100, at the threshold scores 0. Bands agree with
// riskLevelForRatio (HIGH >= 50, MODERATE >= 20).
func riskScoreForRatio(ratio float64) int {
	score := int(math.Round((1 - ratio) * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// riskLevelForScore is the inverse banding used for aggregates over already
// scored customers.
func riskLevelForScore(score float64) model.RiskLevel {
	switch {
	case score >= 50:
		return model.RiskHigh
	case score >= 20:
		return model.RiskModerate
	default:
		return model.RiskLow
	}
}
