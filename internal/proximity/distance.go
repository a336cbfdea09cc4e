// Package proximity implements the proximity/risk classification engine: for
// every customer on the satisfaction/loyalty grid it measures distance to
// quadrant and special-zone boundaries, flags customers at risk of movement,
// and aggregates crossroads customers that sit near several boundaries at
// once. All computation is pure and safe for concurrent use.
package proximity

import (
	"fmt"
	"math"
	"strings"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// DistanceCalculator derives the boundary geometry of one grid
// configuration: per-direction spans from the midpoint to the scale edges,
// per-direction proximity thresholds, and whether proximity analysis is
// meaningful at all. It is a pure function of its constructor inputs.
type DistanceCalculator struct {
	satScale grid.Scale
	loyScale grid.Scale
	mid      model.Midpoint

	// Quadrant spans from the midpoint to each scale edge.
	satLeft  float64
	satRight float64
	loyDown  float64
	loyUp    float64

	thresholds model.DirectionalThresholds
	available  bool
	reason     string
}

// minQuadrantSpan is the smallest span (in scale steps) between the midpoint
// and a scale edge for which boundary proximity still means anything; at one
// step or less every point in the quadrant touches the boundary.
const minQuadrantSpan = 1.0

// NewDistanceCalculator parses both scales and precomputes spans, thresholds,
// and availability for the configuration.
func NewDistanceCalculator(satScale, loyScale string, mid model.Midpoint) (*DistanceCalculator, error) {
	sat, err := grid.ParseScale(satScale)
	if err != nil {
		return nil, err
	}
	loy, err := grid.ParseScale(loyScale)
	if err != nil {
		return nil, err
	}
	if err := grid.ValidateMidpoint(sat, loy, mid); err != nil {
		return nil, err
	}

	c := &DistanceCalculator{
		satScale: sat,
		loyScale: loy,
		mid:      mid,
		satLeft:  mid.Sat - float64(sat.Min),
		satRight: float64(sat.Max) - mid.Sat,
		loyDown:  mid.Loy - float64(loy.Min),
		loyUp:    float64(loy.Max) - mid.Loy,
	}

	// One threshold per lateral direction: quadrant spans differ when the
	// midpoint is off-center, so "close to the boundary" scales with the
	// span on that side. A quarter of the span, floored at one grid step.
	c.thresholds = model.DirectionalThresholds{
		SatLeft:  directionalThreshold(c.satLeft),
		SatRight: directionalThreshold(c.satRight),
		LoyDown:  directionalThreshold(c.loyDown),
		LoyUp:    directionalThreshold(c.loyUp),
	}

	var tooSmall []string
	if c.satLeft <= minQuadrantSpan || c.satRight <= minQuadrantSpan {
		tooSmall = append(tooSmall, "satisfaction")
	}
	if c.loyDown <= minQuadrantSpan || c.loyUp <= minQuadrantSpan {
		tooSmall = append(tooSmall, "loyalty")
	}
	switch len(tooSmall) {
	case 0:
		c.available = true
	case 1:
		c.reason = fmt.Sprintf("scale too small on the %s axis", tooSmall[0])
	default:
		c.reason = fmt.Sprintf("scale too small on the %s axes", strings.Join(tooSmall, " and "))
	}

	return c, nil
}

func directionalThreshold(span float64) float64 {
	return math.Max(1, span/4)
}

// DefaultThreshold returns the scalar threshold applied when the caller does
// not override it: the minimum of the four directional thresholds, so that
// "close" means the same thing in every direction.
func (c *DistanceCalculator) DefaultThreshold() float64 {
	return math.Min(
		math.Min(c.thresholds.SatLeft, c.thresholds.SatRight),
		math.Min(c.thresholds.LoyDown, c.thresholds.LoyUp),
	)
}

// DirectionalThresholds returns the per-direction thresholds.
func (c *DistanceCalculator) DirectionalThresholds() model.DirectionalThresholds {
	return c.thresholds
}

// IsProximityAvailable reports whether proximity analysis is meaningful for
// this configuration. It is false when any quadrant span is at or below one
// scale step.
func (c *DistanceCalculator) IsProximityAvailable() bool {
	return c.available
}

// UnavailableReason returns a human-readable reason when proximity analysis
// is unavailable, naming the offending axis. Empty when available.
func (c *DistanceCalculator) UnavailableReason() string {
	return c.reason
}

// SatScale returns the parsed satisfaction scale.
func (c *DistanceCalculator) SatScale() grid.Scale { return c.satScale }

// LoyScale returns the parsed loyalty scale.
func (c *DistanceCalculator) LoyScale() grid.Scale { return c.loyScale }

// Midpoint returns the configured midpoint.
func (c *DistanceCalculator) Midpoint() model.Midpoint { return c.mid }
