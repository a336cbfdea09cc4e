package grid

import (
	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// Assigner maps a data point to its quadrant or special zone. Analysis code
// never recomputes assignment itself; it always goes through this interface,
// so callers with their own boundary conventions can plug them in.
type Assigner interface {
	QuadrantFor(p model.DataPoint) model.Quadrant
}

// AssignerFunc adapts a plain function to the Assigner interface.
type AssignerFunc func(p model.DataPoint) model.Quadrant

func (f AssignerFunc) QuadrantFor(p model.DataPoint) model.Quadrant {
	return f(p)
}

// StandardAssigner implements the midpoint rule: a point at or above the
// midpoint on an axis falls on the high side of that axis, so points on a
// midline land in the higher-valued quadrant. When special zones are shown,
// corner-block membership wins over the plain quadrant, and the near-apostles
// ring is recognized only when it is shown too. Fence-sitters (exactly on
// the midpoint in both axes) map to QuadrantNone.
type StandardAssigner struct {
	mid              model.Midpoint
	zones            *Zones
	showSpecialZones bool
	showNearApostles bool
}

// NewStandardAssigner builds the default assigner for a grid configuration.
// zones may be nil when special zones are not shown.
func NewStandardAssigner(mid model.Midpoint, zones *Zones, showSpecialZones, showNearApostles bool) *StandardAssigner {
	return &StandardAssigner{
		mid:              mid,
		zones:            zones,
		showSpecialZones: showSpecialZones && zones != nil,
		showNearApostles: showNearApostles && zones != nil,
	}
}

func (a *StandardAssigner) QuadrantFor(p model.DataPoint) model.Quadrant {
	if p.OnMidpoint(a.mid) {
		return model.QuadrantNone
	}

	if a.showSpecialZones {
		switch {
		case a.zones.InApostles(p):
			return model.QuadrantApostles
		case a.zones.InTerrorists(p):
			return model.QuadrantTerrorists
		case a.showNearApostles && a.zones.InNearApostles(p):
			return model.QuadrantNearApostles
		}
	}

	highSat := p.Satisfaction >= a.mid.Sat
	highLoy := p.Loyalty >= a.mid.Loy
	switch {
	case highSat && highLoy:
		return model.QuadrantLoyalists
	case highSat:
		return model.QuadrantMercenaries
	case highLoy:
		return model.QuadrantHostages
	default:
		return model.QuadrantDefectors
	}
}
