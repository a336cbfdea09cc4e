// Package workflow schedules dataset re-analysis through Temporal. One
// refresh execution lists the datasets and re-runs the analysis for each,
// surviving worker restarts and retrying transient failures per activity.
package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TaskQueue is the queue both the worker and the trigger use.
const TaskQueue = "segmentor-refresh"

// RefreshInput selects what a refresh execution covers. An empty DatasetIDs
// refreshes every dataset.
type RefreshInput struct {
	DatasetIDs []string `json:"dataset_ids,omitempty"`
}

// DatasetOutcome records how the refresh went for one dataset.
type DatasetOutcome struct {
	DatasetID        string  `json:"dataset_id"`
	Name             string  `json:"name,omitempty"`
	RunID            string  `json:"run_id,omitempty"`
	AverageRiskScore float64 `json:"average_risk_score,omitempty"`
	Error            string  `json:"error,omitempty"`
}

// RefreshResult is the workflow's return value.
type RefreshResult struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Outcomes  []DatasetOutcome `json:"outcomes"`
}

// RefreshWorkflow re-analyzes datasets one by one. A dataset whose analysis
// exhausts its retries is recorded as failed and the workflow moves on; the
// execution itself fails only when the dataset listing does.
func RefreshWorkflow(ctx workflow.Context, input RefreshInput) (*RefreshResult, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	})
	logger := workflow.GetLogger(ctx)

	var acts *Activities

	var datasets []DatasetRef
	if err := workflow.ExecuteActivity(ctx, acts.ListDatasets).Get(ctx, &datasets); err != nil {
		return nil, err
	}
	datasets = filterDatasets(datasets, input.DatasetIDs)
	logger.Info("refresh started", "datasets", len(datasets))

	result := &RefreshResult{}
	for _, ds := range datasets {
		outcome := DatasetOutcome{DatasetID: ds.ID, Name: ds.Name}

		var analysis AnalysisOutcome
		err := workflow.ExecuteActivity(ctx, acts.AnalyzeDataset, ds.ID).Get(ctx, &analysis)
		if err != nil {
			outcome.Error = err.Error()
			result.Failed++
			logger.Error("dataset refresh failed", "dataset", ds.ID, "error", err)
		} else {
			outcome.RunID = analysis.RunID
			outcome.AverageRiskScore = analysis.AverageRiskScore
			result.Succeeded++
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	logger.Info("refresh complete", "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

// filterDatasets keeps only the requested IDs; an empty filter keeps all.
func filterDatasets(datasets []DatasetRef, ids []string) []DatasetRef {
	if len(ids) == 0 {
		return datasets
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := datasets[:0]
	for _, ds := range datasets {
		if _, ok := want[ds.ID]; ok {
			out = append(out, ds)
		}
	}
	return out
}
