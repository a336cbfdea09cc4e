package proximity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

func pt(sat, loy float64) model.DataPoint {
	return model.DataPoint{Satisfaction: sat, Loyalty: loy}
}

func TestLateralClassify_Distances(t *testing.T) {
	calc := NewLateralProximityCalculator(mid(5, 5))

	tests := []struct {
		name     string
		point    model.DataPoint
		quadrant model.Quadrant
		want     map[model.Quadrant]float64
	}{
		{
			name:     "loyalist above both midlines",
			point:    pt(7, 6),
			quadrant: model.QuadrantLoyalists,
			want: map[model.Quadrant]float64{
				model.QuadrantMercenaries: 1,
				model.QuadrantHostages:    2,
			},
		},
		{
			name:     "mercenary below loyalty midline",
			point:    pt(8, 4),
			quadrant: model.QuadrantMercenaries,
			want: map[model.Quadrant]float64{
				model.QuadrantLoyalists: 1,
				model.QuadrantDefectors: 3,
			},
		},
		{
			name:     "hostage left of satisfaction midline",
			point:    pt(4, 9),
			quadrant: model.QuadrantHostages,
			want: map[model.Quadrant]float64{
				model.QuadrantLoyalists: 1,
				model.QuadrantDefectors: 4,
			},
		},
		{
			name:     "defector near the origin corner",
			point:    pt(2, 3),
			quadrant: model.QuadrantDefectors,
			want: map[model.Quadrant]float64{
				model.QuadrantMercenaries: 3,
				model.QuadrantHostages:    2,
			},
		},
		{
			name:     "on the midline clamps to zero",
			point:    pt(5, 8),
			quadrant: model.QuadrantLoyalists,
			want: map[model.Quadrant]float64{
				model.QuadrantMercenaries: 3,
				model.QuadrantHostages:    0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := calc.Classify(tt.point, tt.quadrant, 1.25)
			for target, want := range tt.want {
				assert.InDelta(t, want, res.Distances[target], 0.01, "distance toward %s", target)
			}
			assert.Len(t, res.Distances, len(tt.want))
		})
	}
}

func TestLateralClassify_TargetsAndRisk(t *testing.T) {
	calc := NewLateralProximityCalculator(mid(5, 5))

	tests := []struct {
		name      string
		point     model.DataPoint
		quadrant  model.Quadrant
		threshold float64
		targets   []model.Quadrant
		minDist   float64
		risk      model.RiskLevel
	}{
		{
			name:      "well inside the quadrant",
			point:     pt(8, 8),
			quadrant:  model.QuadrantLoyalists,
			threshold: 1.25,
			targets:   nil,
			minDist:   3,
			risk:      model.RiskLow,
		},
		{
			name:      "within threshold of one boundary",
			point:     pt(7, 6),
			quadrant:  model.QuadrantLoyalists,
			threshold: 1.25,
			targets:   []model.Quadrant{model.QuadrantMercenaries},
			minDist:   1,
			risk:      model.RiskModerate,
		},
		{
			name:      "touching a boundary is high risk",
			point:     pt(5, 8),
			quadrant:  model.QuadrantLoyalists,
			threshold: 1.25,
			targets:   []model.Quadrant{model.QuadrantHostages},
			minDist:   0,
			risk:      model.RiskHigh,
		},
		{
			name:      "corner point close to both neighbors",
			point:     pt(5.5, 5.5),
			quadrant:  model.QuadrantLoyalists,
			threshold: 1.25,
			targets:   []model.Quadrant{model.QuadrantMercenaries, model.QuadrantHostages},
			minDist:   0.5,
			risk:      model.RiskHigh,
		},
		{
			name:      "distance exactly at threshold is included",
			point:     pt(6, 6.25),
			quadrant:  model.QuadrantLoyalists,
			threshold: 1.25,
			targets:   []model.Quadrant{model.QuadrantMercenaries, model.QuadrantHostages},
			minDist:   1,
			risk:      model.RiskModerate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := calc.Classify(tt.point, tt.quadrant, tt.threshold)
			assert.Equal(t, tt.targets, res.Targets)
			assert.InDelta(t, tt.minDist, res.MinDistance, 0.01)
			assert.Equal(t, tt.risk, res.RiskLevel)
		})
	}
}

func TestLateralClassify_UnknownQuadrant(t *testing.T) {
	calc := NewLateralProximityCalculator(mid(5, 5))

	res := calc.Classify(pt(9, 9), model.QuadrantApostles, 1.25)
	assert.Empty(t, res.Targets)
	assert.Empty(t, res.Distances)
	assert.True(t, math.IsInf(res.MinDistance, 1))
	assert.Equal(t, model.RiskLow, res.RiskLevel)
}

func TestRiskGrading(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		level model.RiskLevel
		score int
	}{
		{name: "on the boundary", ratio: 0, level: model.RiskHigh, score: 100},
		{name: "half the threshold", ratio: 0.5, level: model.RiskHigh, score: 50},
		{name: "just past half", ratio: 0.51, level: model.RiskModerate, score: 49},
		{name: "at the moderate edge", ratio: 0.8, level: model.RiskModerate, score: 20},
		{name: "just past moderate", ratio: 0.81, level: model.RiskLow, score: 19},
		{name: "at the threshold", ratio: 1, level: model.RiskLow, score: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.level, riskLevelForRatio(tt.ratio))
			assert.Equal(t, tt.score, riskScoreForRatio(tt.ratio))
		})
	}
}
