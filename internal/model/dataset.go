package model

import "time"

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Dataset is a survey data set together with its grid configuration. The
// configuration travels with the data because every derived entity
// (quadrant, zone, proximity relationship) depends on it.
type Dataset struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	SatisfactionScale  string   `json:"satisfaction_scale"`
	LoyaltyScale       string   `json:"loyalty_scale"`
	Midpoint           Midpoint `json:"midpoint"`
	ApostlesZoneSize   int      `json:"apostles_zone_size"`
	TerroristsZoneSize int      `json:"terrorists_zone_size"`
	ShowSpecialZones   bool     `json:"show_special_zones"`
	ShowNearApostles   bool     `json:"show_near_apostles"`
	Premium            bool     `json:"premium"`

	CustomerCount int       `json:"customer_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AnalysisRun records one proximity analysis over a dataset.
type AnalysisRun struct {
	ID        string                   `json:"id"`
	DatasetID string                   `json:"dataset_id"`
	Status    RunStatus                `json:"status"`
	Result    *ProximityAnalysisResult `json:"result,omitempty"`
	Error     string                   `json:"error,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// ImportIssue describes why a single source row was rejected or flagged.
type ImportIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportSummary is the outcome of one import: counts plus per-row issues.
type ImportSummary struct {
	RowsRead    int           `json:"rows_read"`
	Imported    int           `json:"imported"`
	Overwritten int           `json:"overwritten"`
	Skipped     int           `json:"skipped"`
	Issues      []ImportIssue `json:"issues,omitempty"`
}
