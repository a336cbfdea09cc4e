package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

func newRefreshEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *Activities) {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	acts := &Activities{}
	env.RegisterActivity(acts)
	return env, acts
}

func TestRefreshWorkflow_AllDatasets(t *testing.T) {
	env, acts := newRefreshEnv(t)

	env.OnActivity(acts.ListDatasets, mock.Anything).Return([]DatasetRef{
		{ID: "ds-1", Name: "Q3 survey"},
		{ID: "ds-2", Name: "Q4 survey"},
	}, nil)
	env.OnActivity(acts.AnalyzeDataset, mock.Anything, "ds-1").
		Return(&AnalysisOutcome{RunID: "run-1", AverageRiskScore: 62.5}, nil)
	env.OnActivity(acts.AnalyzeDataset, mock.Anything, "ds-2").
		Return(&AnalysisOutcome{RunID: "run-2", AverageRiskScore: 18.0}, nil)

	env.ExecuteWorkflow(RefreshWorkflow, RefreshInput{})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result RefreshResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, "run-1", result.Outcomes[0].RunID)
	assert.Equal(t, 62.5, result.Outcomes[0].AverageRiskScore)
	assert.Equal(t, "run-2", result.Outcomes[1].RunID)
}

func TestRefreshWorkflow_ContinuesPastFailure(t *testing.T) {
	env, acts := newRefreshEnv(t)

	env.OnActivity(acts.ListDatasets, mock.Anything).Return([]DatasetRef{
		{ID: "ds-bad", Name: "Broken"},
		{ID: "ds-good", Name: "Fine"},
	}, nil)
	env.OnActivity(acts.AnalyzeDataset, mock.Anything, "ds-bad").
		Return(nil, errors.New("scale parse failed"))
	env.OnActivity(acts.AnalyzeDataset, mock.Anything, "ds-good").
		Return(&AnalysisOutcome{RunID: "run-good"}, nil)

	env.ExecuteWorkflow(RefreshWorkflow, RefreshInput{})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result RefreshResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Outcomes, 2)
	assert.NotEmpty(t, result.Outcomes[0].Error)
	assert.Empty(t, result.Outcomes[0].RunID)
	assert.Equal(t, "run-good", result.Outcomes[1].RunID)
}

func TestRefreshWorkflow_RetriesTransientFailure(t *testing.T) {
	env, acts := newRefreshEnv(t)

	env.OnActivity(acts.ListDatasets, mock.Anything).Return([]DatasetRef{
		{ID: "ds-1", Name: "Flaky"},
	}, nil)
	// First attempt fails, the retry succeeds.
	env.OnActivity(acts.AnalyzeDataset, mock.Anything, "ds-1").
		Return(nil, errors.New("store timeout")).Once()
	env.OnActivity(acts.AnalyzeDataset, mock.Anything, "ds-1").
		Return(&AnalysisOutcome{RunID: "run-1"}, nil).Once()

	env.ExecuteWorkflow(RefreshWorkflow, RefreshInput{})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result RefreshResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	env.AssertExpectations(t)
}

func TestRefreshWorkflow_ListFailureFailsExecution(t *testing.T) {
	env, acts := newRefreshEnv(t)

	env.OnActivity(acts.ListDatasets, mock.Anything).
		Return(nil, errors.New("store down"))

	env.ExecuteWorkflow(RefreshWorkflow, RefreshInput{})

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
}

func TestRefreshWorkflow_DatasetFilter(t *testing.T) {
	env, acts := newRefreshEnv(t)

	env.OnActivity(acts.ListDatasets, mock.Anything).Return([]DatasetRef{
		{ID: "ds-1", Name: "Skip"},
		{ID: "ds-2", Name: "Keep"},
	}, nil)
	env.OnActivity(acts.AnalyzeDataset, mock.Anything, "ds-2").
		Return(&AnalysisOutcome{RunID: "run-2"}, nil).Once()

	env.ExecuteWorkflow(RefreshWorkflow, RefreshInput{DatasetIDs: []string{"ds-2"}})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result RefreshResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 1, result.Succeeded)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "ds-2", result.Outcomes[0].DatasetID)
	env.AssertExpectations(t)
}

func TestFilterDatasets(t *testing.T) {
	all := []DatasetRef{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	tests := []struct {
		name string
		ids  []string
		want []string
	}{
		{name: "empty filter keeps all", ids: nil, want: []string{"a", "b", "c"}},
		{name: "subset", ids: []string{"c", "a"}, want: []string{"a", "c"}},
		{name: "unknown ids drop out", ids: []string{"z"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]DatasetRef, len(all))
			copy(in, all)
			got := filterDatasets(in, tt.ids)
			ids := make([]string, 0, len(got))
			for _, d := range got {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
