package grid

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// Zones holds the special-zone geometry for one grid configuration.
//
// The apostles block is the square of ApostlesSize positions anchored at the
// max/max corner; terrorists mirrors it at min/min. Near-apostles is the
// 1-thick ring hugging the apostles block. A block of size 1 covers exactly
// the corner position.
type Zones struct {
	ApostlesSize   int
	TerroristsSize int

	apostles   *geom.Bounds
	terrorists *geom.Bounds
	// expanded is the apostles block grown by one position on each inner
	// side; the near-apostles ring is expanded minus apostles.
	expanded *geom.Bounds
}

// NewZones validates the zone sizes against the grid and builds the zone
// geometry. Each block must stay strictly on its own side of the midpoint.
func NewZones(sat, loy Scale, mid model.Midpoint, apostlesSize, terroristsSize int) (*Zones, error) {
	if apostlesSize < 1 {
		return nil, eris.Errorf("grid: apostles zone size %d below minimum 1", apostlesSize)
	}
	if terroristsSize < 1 {
		return nil, eris.Errorf("grid: terrorists zone size %d below minimum 1", terroristsSize)
	}

	apSatMin := float64(sat.Max - (apostlesSize - 1))
	apLoyMin := float64(loy.Max - (apostlesSize - 1))
	if apSatMin <= mid.Sat || apLoyMin <= mid.Loy {
		return nil, eris.Errorf("grid: apostles zone size %d crosses the midpoint", apostlesSize)
	}

	teSatMax := float64(sat.Min + (terroristsSize - 1))
	teLoyMax := float64(loy.Min + (terroristsSize - 1))
	if teSatMax >= mid.Sat || teLoyMax >= mid.Loy {
		return nil, eris.Errorf("grid: terrorists zone size %d crosses the midpoint", terroristsSize)
	}

	return &Zones{
		ApostlesSize:   apostlesSize,
		TerroristsSize: terroristsSize,
		apostles: geom.NewBounds(geom.XY).Set(
			apSatMin, apLoyMin, float64(sat.Max), float64(loy.Max),
		),
		terrorists: geom.NewBounds(geom.XY).Set(
			float64(sat.Min), float64(loy.Min), teSatMax, teLoyMax,
		),
		expanded: geom.NewBounds(geom.XY).Set(
			apSatMin-1, apLoyMin-1, float64(sat.Max), float64(loy.Max),
		),
	}, nil
}

// InApostles reports whether the point lies inside the apostles block.
func (z *Zones) InApostles(p model.DataPoint) bool {
	return z.apostles.OverlapsPoint(geom.XY, geom.Coord{p.Satisfaction, p.Loyalty})
}

// InTerrorists reports whether the point lies inside the terrorists block.
func (z *Zones) InTerrorists(p model.DataPoint) bool {
	return z.terrorists.OverlapsPoint(geom.XY, geom.Coord{p.Satisfaction, p.Loyalty})
}

// InNearApostles reports whether the point lies on the near-apostles ring:
// inside the expanded block but not inside the apostles block itself.
func (z *Zones) InNearApostles(p model.DataPoint) bool {
	c := geom.Coord{p.Satisfaction, p.Loyalty}
	return z.expanded.OverlapsPoint(geom.XY, c) && !z.apostles.OverlapsPoint(geom.XY, c)
}

// DistanceToApostles returns the Chebyshev distance from the point to the
// nearest edge of the apostles block, 0 if the point is inside.
func (z *Zones) DistanceToApostles(p model.DataPoint) float64 {
	return chebyshevToBounds(z.apostles, p.Satisfaction, p.Loyalty)
}

// DistanceToTerrorists returns the Chebyshev distance from the point to the
// nearest edge of the terrorists block, 0 if the point is inside.
func (z *Zones) DistanceToTerrorists(p model.DataPoint) float64 {
	return chebyshevToBounds(z.terrorists, p.Satisfaction, p.Loyalty)
}

// DistanceToNearApostles returns the Chebyshev distance from the point to
// the near-apostles ring. For points outside the expanded block this equals
// the distance to the expanded block, whose outward faces all belong to the
// ring; for points on the ring it is 0.
func (z *Zones) DistanceToNearApostles(p model.DataPoint) float64 {
	if z.InNearApostles(p) {
		return 0
	}
	return chebyshevToBounds(z.expanded, p.Satisfaction, p.Loyalty)
}

// ApostlesArea returns the block area in grid positions (size squared).
func (z *Zones) ApostlesArea() int {
	return z.ApostlesSize * z.ApostlesSize
}

// TerroristsArea returns the block area in grid positions (size squared).
func (z *Zones) TerroristsArea() int {
	return z.TerroristsSize * z.TerroristsSize
}

// ApostlesBounds exposes the apostles block for overlay rendering.
func (z *Zones) ApostlesBounds() *geom.Bounds { return z.apostles }

// TerroristsBounds exposes the terrorists block for overlay rendering.
func (z *Zones) TerroristsBounds() *geom.Bounds { return z.terrorists }

// NearApostlesBounds exposes the expanded block enclosing the ring.
func (z *Zones) NearApostlesBounds() *geom.Bounds { return z.expanded }

// chebyshevToBounds is the Chebyshev distance from (x, y) to an axis-aligned
// box: the max of the per-axis distances to the box interval, 0 inside.
func chebyshevToBounds(b *geom.Bounds, x, y float64) float64 {
	dx := axisDistance(x, b.Min(0), b.Max(0))
	dy := axisDistance(y, b.Min(1), b.Max(1))
	return math.Max(dx, dy)
}

func axisDistance(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}
