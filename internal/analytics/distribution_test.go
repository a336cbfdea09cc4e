package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
)

func TestNewDistribution_Ordering(t *testing.T) {
	sc := grid.MustParseScale("0-10")

	d, err := NewDistribution(sc, []float64{7, 3, 7, 10, 3, 7})
	require.NoError(t, err)

	require.Len(t, d.Buckets(), 3)
	assert.Equal(t, 3.0, d.Buckets()[0].Value)
	assert.Equal(t, 2, d.Buckets()[0].Count)
	assert.Equal(t, 7.0, d.Buckets()[1].Value)
	assert.Equal(t, 3, d.Buckets()[1].Count)
	assert.Equal(t, 10.0, d.Buckets()[2].Value)
	assert.Equal(t, 1, d.Buckets()[2].Count)
	assert.Equal(t, 6, d.Total())
	assert.InDelta(t, 0.5, d.Buckets()[1].Share, 0.01)
}

func TestNewDistribution_OutOfScale(t *testing.T) {
	sc := grid.MustParseScale("1-5")

	_, err := NewDistribution(sc, []float64{3, 6})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside scale 1-5")
}

func TestDistribution_Stats(t *testing.T) {
	sc := grid.MustParseScale("0-10")

	tests := []struct {
		name   string
		values []float64
		mean   float64
		median float64
		modes  []float64
	}{
		{
			name:   "odd count",
			values: []float64{2, 4, 4, 6, 9},
			mean:   5,
			median: 4,
			modes:  []float64{4},
		},
		{
			name:   "even count averages the middle",
			values: []float64{3, 5, 7, 9},
			mean:   6,
			median: 6,
			modes:  []float64{3, 5, 7, 9},
		},
		{
			name:   "tied modes stay ascending",
			values: []float64{1, 1, 8, 8, 5},
			mean:   4.6,
			median: 5,
			modes:  []float64{1, 8},
		},
		{
			name:   "empty",
			values: nil,
			mean:   0,
			median: 0,
			modes:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDistribution(sc, tt.values)
			require.NoError(t, err)

			assert.InDelta(t, tt.mean, d.Mean(), 0.01)
			assert.InDelta(t, tt.median, d.Median(), 0.01)
			assert.Equal(t, tt.modes, d.Modes())
		})
	}
}

func TestDistribution_Count(t *testing.T) {
	sc := grid.MustParseScale("1-7")

	d, err := NewDistribution(sc, []float64{2, 2, 5})
	require.NoError(t, err)

	assert.Equal(t, 2, d.Count(2))
	assert.Equal(t, 1, d.Count(5))
	assert.Zero(t, d.Count(7))
}
