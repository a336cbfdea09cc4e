package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

func newAssigner(t *testing.T) grid.Assigner {
	t.Helper()
	sat := grid.MustParseScale("0-10")
	loyScale := grid.MustParseScale("0-10")
	mid := grid.DefaultMidpoint(sat, loyScale)
	zones, err := grid.NewZones(sat, loyScale, mid, 2, 2)
	require.NoError(t, err)
	return grid.NewStandardAssigner(mid, zones, true, false)
}

func point(sat, loyalty float64) model.DataPoint {
	return model.DataPoint{Satisfaction: sat, Loyalty: loyalty}
}

func TestQuadrantShares(t *testing.T) {
	data := []model.DataPoint{
		point(8, 8),   // loyalists
		point(7, 6),   // loyalists
		point(8, 2),   // mercenaries
		point(2, 8),   // hostages
		point(10, 10), // apostles
		point(5, 5),   // fence-sitter
	}

	shares := QuadrantShares(data, newAssigner(t))

	byQuadrant := make(map[model.Quadrant]QuadrantShare, len(shares))
	for _, s := range shares {
		byQuadrant[s.Quadrant] = s
	}

	assert.Equal(t, 2, byQuadrant[model.QuadrantLoyalists].Count)
	assert.InDelta(t, 33.3, byQuadrant[model.QuadrantLoyalists].Percent, 0.01)
	assert.Equal(t, 1, byQuadrant[model.QuadrantMercenaries].Count)
	assert.Equal(t, 1, byQuadrant[model.QuadrantHostages].Count)
	assert.Equal(t, 1, byQuadrant[model.QuadrantApostles].Count)
	assert.Equal(t, 1, byQuadrant[model.QuadrantNone].Count)

	// Empty base quadrants still report; empty zones do not.
	assert.Contains(t, byQuadrant, model.QuadrantDefectors)
	assert.Zero(t, byQuadrant[model.QuadrantDefectors].Count)
	assert.NotContains(t, byQuadrant, model.QuadrantTerrorists)

	// Base quadrants lead in fixed order.
	assert.Equal(t, model.QuadrantLoyalists, shares[0].Quadrant)
	assert.Equal(t, model.QuadrantMercenaries, shares[1].Quadrant)
	assert.Equal(t, model.QuadrantHostages, shares[2].Quadrant)
	assert.Equal(t, model.QuadrantDefectors, shares[3].Quadrant)
}

func TestCompute(t *testing.T) {
	sat := grid.MustParseScale("0-10")
	loyScale := grid.MustParseScale("0-10")

	excluded := point(4, 4)
	excluded.Excluded = true
	data := []model.DataPoint{
		point(8, 9),
		point(7, 7),
		point(2, 3),
		excluded,
	}

	stats, err := Compute(sat, loyScale, data, newAssigner(t))
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Customers)
	assert.Equal(t, 1, stats.Excluded)
	assert.Equal(t, 3, stats.Satisfaction.Total())
	assert.Equal(t, 3, stats.Loyalty.Total())
	assert.InDelta(t, 5.67, stats.Satisfaction.Mean(), 0.01)

	assert.Equal(t, 1, stats.Recommendation.Promoters)
	assert.Equal(t, 1, stats.Recommendation.Passives)
	assert.Equal(t, 1, stats.Recommendation.Detractors)
	assert.InDelta(t, 0, stats.Recommendation.Score, 0.01)
}

func TestCompute_OutOfScaleValue(t *testing.T) {
	sat := grid.MustParseScale("1-5")
	loyScale := grid.MustParseScale("1-5")

	_, err := Compute(sat, loyScale, []model.DataPoint{point(9, 3)}, newAssigner(t))
	assert.Error(t, err)
}
