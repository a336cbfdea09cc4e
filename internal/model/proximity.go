package model

// DirectionalThresholds holds the per-direction lateral proximity thresholds.
// The four quadrants may have different spans relative to the midpoint, so
// each direction carries its own value.
type DirectionalThresholds struct {
	SatLeft  float64 `json:"sat_left"`
	SatRight float64 `json:"sat_right"`
	LoyDown  float64 `json:"loy_down"`
	LoyUp    float64 `json:"loy_up"`
}

// ProximitySettings echoes the effective configuration of an analysis so
// consumers can interpret the result without re-deriving anything.
type ProximitySettings struct {
	SatisfactionScale     string                `json:"satisfaction_scale"`
	LoyaltyScale          string                `json:"loyalty_scale"`
	Midpoint              Midpoint              `json:"midpoint"`
	Threshold             float64               `json:"threshold"`
	DirectionalThresholds DirectionalThresholds `json:"directional_thresholds"`
	IsAvailable           bool                  `json:"is_available"`
	UnavailableReason     string                `json:"unavailable_reason,omitempty"`
	ShowSpecialZones      bool                  `json:"show_special_zones"`
	ShowNearApostles      bool                  `json:"show_near_apostles"`
	ApostlesZoneSize      int                   `json:"apostles_zone_size"`
	TerroristsZoneSize    int                   `json:"terrorists_zone_size"`
	IsPremium             bool                  `json:"is_premium"`
}

// ProximityCustomer is a single matched customer within a relationship.
type ProximityCustomer struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name,omitempty"`
	Satisfaction         float64   `json:"satisfaction"`
	Loyalty              float64   `json:"loyalty"`
	DistanceFromBoundary float64   `json:"distance_from_boundary"`
	RiskScore            int       `json:"risk_score"`
	RiskLevel            RiskLevel `json:"risk_level"`
}

// ProximityDetail aggregates one directional relationship (from -> to).
// PositionCount counts unique (sat, loy) pairs and is always <=
// CustomerCount.
type ProximityDetail struct {
	From            Quadrant            `json:"from"`
	To              Quadrant            `json:"to"`
	Label           string              `json:"label"`
	CustomerCount   int                 `json:"customer_count"`
	PositionCount   int                 `json:"position_count"`
	AverageDistance float64             `json:"average_distance"`
	RiskLevel       RiskLevel           `json:"risk_level"`
	Customers       []ProximityCustomer `json:"customers,omitempty"`
}

// ProximitySummary rolls all relationship buckets into headline numbers.
type ProximitySummary struct {
	TotalCustomers        int      `json:"total_customers"`
	TotalPositions        int      `json:"total_positions"`
	AverageRiskScore      float64  `json:"average_risk_score"`
	CrisisIndicators      []string `json:"crisis_indicators,omitempty"`
	OpportunityIndicators []string `json:"opportunity_indicators,omitempty"`
}

// CrossroadsCustomer is a customer appearing in two or more proximity
// relationships at once. StrategicValue reflects relationship count and
// average risk.
type CrossroadsCustomer struct {
	ID               string    `json:"id"`
	Name             string    `json:"name,omitempty"`
	Satisfaction     float64   `json:"satisfaction"`
	Loyalty          float64   `json:"loyalty"`
	Relationships    []string  `json:"relationships"`
	AverageRiskScore float64   `json:"average_risk_score"`
	StrategicValue   RiskLevel `json:"strategic_value"`
}

// ProximityAnalysisResult is the full output of one analysis call. Details
// keeps a stable relationship order: lateral pairs, then diagonal, then
// special zones.
type ProximityAnalysisResult struct {
	Settings   ProximitySettings    `json:"settings"`
	Details    []ProximityDetail    `json:"details"`
	Summary    ProximitySummary     `json:"summary"`
	Crossroads []CrossroadsCustomer `json:"crossroads,omitempty"`
}

// Detail returns the detail for a relationship label, or nil when that
// relationship was not analyzed at all. Analyzed relationships keep a
// zero-valued detail even with no matches.
func (r *ProximityAnalysisResult) Detail(label string) *ProximityDetail {
	for i := range r.Details {
		if r.Details[i].Label == label {
			return &r.Details[i]
		}
	}
	return nil
}
