package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeV365/segmentor-sub003/internal/config"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/proximity"
)

func keyDataset() model.Dataset {
	return model.Dataset{
		ID:                 "ds-1",
		SatisfactionScale:  "0-10",
		LoyaltyScale:       "0-10",
		Midpoint:           model.Midpoint{Sat: 5, Loy: 5},
		ApostlesZoneSize:   1,
		TerroristsZoneSize: 1,
	}
}

func keyPoints() []model.DataPoint {
	return []model.DataPoint{
		{ID: "c1", Name: "Alice", Satisfaction: 6, Loyalty: 6},
		{ID: "c2", Name: "Bob", Satisfaction: 3, Loyalty: 8},
	}
}

func TestKey_Deterministic(t *testing.T) {
	opts := proximity.AnalyzeOptions{ShowSpecialZones: true}

	k1 := Key(keyDataset(), opts, keyPoints())
	k2 := Key(keyDataset(), opts, keyPoints())
	assert.Equal(t, k1, k2)
	assert.Contains(t, k1, "ds-1:")
}

func TestKey_OrderIndependent(t *testing.T) {
	opts := proximity.AnalyzeOptions{}
	forward := keyPoints()
	reversed := []model.DataPoint{forward[1], forward[0]}

	assert.Equal(t, Key(keyDataset(), opts, forward), Key(keyDataset(), opts, reversed))
}

func TestKey_ChangesWithInputs(t *testing.T) {
	base := Key(keyDataset(), proximity.AnalyzeOptions{}, keyPoints())

	tests := []struct {
		name   string
		mutate func(d *model.Dataset, opts *proximity.AnalyzeOptions, pts []model.DataPoint)
	}{
		{
			name:   "threshold override",
			mutate: func(_ *model.Dataset, o *proximity.AnalyzeOptions, _ []model.DataPoint) { o.Threshold = 0.5 },
		},
		{
			name:   "special zones toggle",
			mutate: func(_ *model.Dataset, o *proximity.AnalyzeOptions, _ []model.DataPoint) { o.ShowSpecialZones = true },
		},
		{
			name:   "premium flag",
			mutate: func(_ *model.Dataset, o *proximity.AnalyzeOptions, _ []model.DataPoint) { o.IsPremium = true },
		},
		{
			name:   "midpoint moves",
			mutate: func(d *model.Dataset, _ *proximity.AnalyzeOptions, _ []model.DataPoint) { d.Midpoint.Sat = 4.5 },
		},
		{
			name:   "zone size",
			mutate: func(d *model.Dataset, _ *proximity.AnalyzeOptions, _ []model.DataPoint) { d.ApostlesZoneSize = 2 },
		},
		{
			name:   "point moves",
			mutate: func(_ *model.Dataset, _ *proximity.AnalyzeOptions, pts []model.DataPoint) { pts[0].Loyalty = 7 },
		},
		{
			name:   "point excluded",
			mutate: func(_ *model.Dataset, _ *proximity.AnalyzeOptions, pts []model.DataPoint) { pts[1].Excluded = true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := keyDataset()
			opts := proximity.AnalyzeOptions{}
			pts := keyPoints()
			tt.mutate(&d, &opts, pts)

			assert.NotEqual(t, base, Key(d, opts, pts))
		})
	}
}

func TestAnalysisCache_GetSet(t *testing.T) {
	c, err := New(config.CacheConfig{Enabled: true, TTLMinutes: 5, MaxMB: 4})
	require.NoError(t, err)
	defer c.Close()

	key := Key(keyDataset(), proximity.AnalyzeOptions{}, keyPoints())

	_, found := c.Get(key)
	assert.False(t, found)

	res := &model.ProximityAnalysisResult{
		Settings: model.ProximitySettings{IsAvailable: true, Threshold: 1.25},
		Summary:  model.ProximitySummary{TotalCustomers: 2},
	}
	require.True(t, c.Set(key, res))
	c.Wait()

	got, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, 2, got.Summary.TotalCustomers)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestAnalysisCache_Expiry(t *testing.T) {
	c, err := New(config.CacheConfig{Enabled: true, TTLMinutes: 5, MaxMB: 4})
	require.NoError(t, err)
	defer c.Close()
	c.ttl = 10 * time.Millisecond

	require.True(t, c.Set("short-lived", &model.ProximityAnalysisResult{}))
	c.Wait()

	time.Sleep(100 * time.Millisecond)

	_, found := c.Get("short-lived")
	assert.False(t, found)
}

func TestAnalysisCache_NilIsDisabled(t *testing.T) {
	var c *AnalysisCache

	_, found := c.Get("anything")
	assert.False(t, found)
	assert.False(t, c.Set("anything", &model.ProximityAnalysisResult{}))
	assert.Equal(t, Stats{}, c.Stats())

	// No panics on lifecycle calls either.
	c.Wait()
	c.Close()
}
