package proximity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func mid(sat, loy float64) model.Midpoint {
	return model.Midpoint{Sat: sat, Loy: loy}
}

func TestNewDistanceCalculator_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		satScale string
		loyScale string
		mid      model.Midpoint
		want     model.DirectionalThresholds
		def      float64
	}{
		{
			name:     "centered 0-10",
			satScale: "0-10",
			loyScale: "0-10",
			mid:      mid(5, 5),
			want:     model.DirectionalThresholds{SatLeft: 1.25, SatRight: 1.25, LoyDown: 1.25, LoyUp: 1.25},
			def:      1.25,
		},
		{
			name:     "centered 1-5 floors at one",
			satScale: "1-5",
			loyScale: "1-5",
			mid:      mid(3, 3),
			want:     model.DirectionalThresholds{SatLeft: 1, SatRight: 1, LoyDown: 1, LoyUp: 1},
			def:      1,
		},
		{
			name:     "off-center midpoint",
			satScale: "0-10",
			loyScale: "0-10",
			mid:      mid(6, 4),
			want:     model.DirectionalThresholds{SatLeft: 1.5, SatRight: 1, LoyDown: 1, LoyUp: 1.5},
			def:      1,
		},
		{
			name:     "mixed scales",
			satScale: "1-7",
			loyScale: "0-10",
			mid:      mid(4, 5),
			want:     model.DirectionalThresholds{SatLeft: 1, SatRight: 1, LoyDown: 1.25, LoyUp: 1.25},
			def:      1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := NewDistanceCalculator(tt.satScale, tt.loyScale, tt.mid)
			require.NoError(t, err)

			got := calc.DirectionalThresholds()
			assert.InDelta(t, tt.want.SatLeft, got.SatLeft, 0.01)
			assert.InDelta(t, tt.want.SatRight, got.SatRight, 0.01)
			assert.InDelta(t, tt.want.LoyDown, got.LoyDown, 0.01)
			assert.InDelta(t, tt.want.LoyUp, got.LoyUp, 0.01)
			assert.InDelta(t, tt.def, calc.DefaultThreshold(), 0.01)
			assert.True(t, calc.IsProximityAvailable())
			assert.Empty(t, calc.UnavailableReason())
		})
	}
}

func TestNewDistanceCalculator_Availability(t *testing.T) {
	tests := []struct {
		name      string
		satScale  string
		loyScale  string
		mid       model.Midpoint
		available bool
		reason    string
	}{
		{
			name:      "1-3 grid too small on both axes",
			satScale:  "1-3",
			loyScale:  "1-3",
			mid:       mid(2, 2),
			available: false,
			reason:    "scale too small on the satisfaction and loyalty axes",
		},
		{
			name:      "loyalty axis too small",
			satScale:  "0-10",
			loyScale:  "1-3",
			mid:       mid(5, 2),
			available: false,
			reason:    "scale too small on the loyalty axis",
		},
		{
			name:      "midpoint tight against one edge",
			satScale:  "0-10",
			loyScale:  "0-10",
			mid:       mid(1, 5),
			available: false,
			reason:    "scale too small on the satisfaction axis",
		},
		{
			name:      "1-5 grid is the smallest workable",
			satScale:  "1-5",
			loyScale:  "1-5",
			mid:       mid(3, 3),
			available: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := NewDistanceCalculator(tt.satScale, tt.loyScale, tt.mid)
			require.NoError(t, err)

			assert.Equal(t, tt.available, calc.IsProximityAvailable())
			if tt.reason != "" {
				assert.Contains(t, calc.UnavailableReason(), tt.reason)
			}
		})
	}
}

func TestNewDistanceCalculator_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		satScale string
		loyScale string
		mid      model.Midpoint
	}{
		{name: "bad satisfaction scale", satScale: "ten", loyScale: "0-10", mid: mid(5, 5)},
		{name: "bad loyalty scale", satScale: "0-10", loyScale: "10", mid: mid(5, 5)},
		{name: "midpoint on scale edge", satScale: "0-10", loyScale: "0-10", mid: mid(0, 5)},
		{name: "midpoint outside scale", satScale: "1-5", loyScale: "1-5", mid: mid(3, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDistanceCalculator(tt.satScale, tt.loyScale, tt.mid)
			assert.Error(t, err)
		})
	}
}
