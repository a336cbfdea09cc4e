package workflow

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/JaimeV365/segmentor-sub003/internal/pipeline"
	"github.com/JaimeV365/segmentor-sub003/internal/store"
)

// DatasetRef identifies one dataset to refresh.
type DatasetRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Customers int    `json:"customers"`
}

// AnalysisOutcome is what one AnalyzeDataset activity reports back.
type AnalysisOutcome struct {
	RunID            string  `json:"run_id"`
	TotalCustomers   int     `json:"total_customers"`
	AverageRiskScore float64 `json:"average_risk_score"`
	Crossroads       int     `json:"crossroads"`
}

// Activities holds the dependencies the refresh activities run against.
// Activity methods must stay deterministic-free: all side effects live here,
// behind the Temporal retry policy.
type Activities struct {
	store store.Store
	pipe  *pipeline.Pipeline
}

// NewActivities wires the refresh activities.
func NewActivities(st store.Store, pipe *pipeline.Pipeline) *Activities {
	return &Activities{store: st, pipe: pipe}
}

// ListDatasets returns every dataset eligible for a refresh.
func (a *Activities) ListDatasets(ctx context.Context) ([]DatasetRef, error) {
	datasets, err := a.store.ListDatasets(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: list datasets")
	}
	refs := make([]DatasetRef, 0, len(datasets))
	for _, d := range datasets {
		refs = append(refs, DatasetRef{ID: d.ID, Name: d.Name, Customers: d.CustomerCount})
	}
	return refs, nil
}

// AnalyzeDataset runs one analysis through the pipeline and reports the
// persisted run.
func (a *Activities) AnalyzeDataset(ctx context.Context, datasetID string) (*AnalysisOutcome, error) {
	run, err := a.pipe.Run(ctx, datasetID, pipeline.Overrides{})
	if err != nil {
		return nil, eris.Wrapf(err, "workflow: analyze dataset %s", datasetID)
	}
	out := &AnalysisOutcome{RunID: run.ID}
	if run.Result != nil {
		out.TotalCustomers = run.Result.Summary.TotalCustomers
		out.AverageRiskScore = run.Result.Summary.AverageRiskScore
		out.Crossroads = len(run.Result.Crossroads)
	}
	return out, nil
}
