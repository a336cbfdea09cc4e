package model

// Quadrant identifies a region of the satisfaction/loyalty grid. The four
// base quadrants are formed by splitting the grid at the midpoint; the three
// zone values refine the corners when special zones are displayed.
type Quadrant string

const (
	QuadrantLoyalists    Quadrant = "loyalists"
	QuadrantMercenaries  Quadrant = "mercenaries"
	QuadrantHostages     Quadrant = "hostages"
	QuadrantDefectors    Quadrant = "defectors"
	QuadrantApostles     Quadrant = "apostles"
	QuadrantNearApostles Quadrant = "near_apostles"
	QuadrantTerrorists   Quadrant = "terrorists"

	// QuadrantNone marks a point sitting exactly on the midpoint in both
	// axes. Fence-sitters belong to no quadrant and are skipped by every
	// grouping and proximity pass.
	QuadrantNone Quadrant = "none"
)

// RiskLevel buckets a distance-to-threshold ratio or an aggregated score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
)

// Midpoint divides the grid into the four quadrants. Values may be
// non-integer (e.g. 2.5 on a 1-5 scale).
type Midpoint struct {
	Sat float64 `json:"sat"`
	Loy float64 `json:"loy"`
}

// DataPoint is a single customer response plotted on the grid. Points are
// created by import and consumed read-only by the analysis passes.
type DataPoint struct {
	ID           string  `json:"id"`
	Name         string  `json:"name,omitempty"`
	Email        string  `json:"email,omitempty"`
	Group        string  `json:"group,omitempty"`
	Satisfaction float64 `json:"satisfaction"`
	Loyalty      float64 `json:"loyalty"`
	Excluded     bool    `json:"excluded,omitempty"`
}

// OnMidpoint reports whether the point sits exactly on the midpoint in both
// axes (the fence-sitter case).
func (p DataPoint) OnMidpoint(mid Midpoint) bool {
	return p.Satisfaction == mid.Sat && p.Loyalty == mid.Loy
}
