package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/resilience"
	"github.com/JaimeV365/segmentor-sub003/pkg/salesforce"
)

// mockSFClient implements salesforce.Client with overridable functions.
type mockSFClient struct {
	queryFn            func(ctx context.Context, soql string, out any) error
	insertCollectionFn func(ctx context.Context, sObjectName string, records []map[string]any) ([]salesforce.CollectionResult, error)
	updateCollectionFn func(ctx context.Context, sObjectName string, records []salesforce.CollectionRecord) ([]salesforce.CollectionResult, error)
}

func (m *mockSFClient) Query(ctx context.Context, soql string, out any) error {
	if m.queryFn != nil {
		return m.queryFn(ctx, soql, out)
	}
	return nil
}

func (m *mockSFClient) InsertCollection(ctx context.Context, sObjectName string, records []map[string]any) ([]salesforce.CollectionResult, error) {
	if m.insertCollectionFn != nil {
		return m.insertCollectionFn(ctx, sObjectName, records)
	}
	return nil, nil
}

func (m *mockSFClient) UpdateCollection(ctx context.Context, sObjectName string, records []salesforce.CollectionRecord) ([]salesforce.CollectionResult, error) {
	if m.updateCollectionFn != nil {
		return m.updateCollectionFn(ctx, sObjectName, records)
	}
	return nil, nil
}

// riskyResult builds a result with two HIGH-risk customers carrying emails
// from testPoints.
func riskyResult() *model.ProximityAnalysisResult {
	return &model.ProximityAnalysisResult{
		Details: []model.ProximityDetail{
			{
				Label: "loyalists_close_to_mercenaries",
				Customers: []model.ProximityCustomer{
					{ID: "c1", Name: "Ann", RiskScore: 90, RiskLevel: model.RiskHigh},
					{ID: "c2", Name: "Bob", RiskScore: 60, RiskLevel: model.RiskHigh},
				},
			},
		},
	}
}

func testPoints() []model.DataPoint {
	return []model.DataPoint{
		{ID: "c1", Name: "Ann", Email: "ann@example.com"},
		{ID: "c2", Name: "Bob", Email: "bob@example.com"},
	}
}

func testDataset() model.Dataset {
	return model.Dataset{ID: "ds-1", Name: "Q3 survey"}
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 1}
}

func TestSyncer_Run_CreatesTasks(t *testing.T) {
	var insertedObject string
	var insertedRecords []map[string]any

	client := &mockSFClient{
		queryFn: func(ctx context.Context, soql string, out any) error {
			assert.Contains(t, soql, "'ann@example.com'")
			assert.Contains(t, soql, "'bob@example.com'")
			contacts := out.(*[]salesforce.Contact)
			*contacts = []salesforce.Contact{
				{ID: "003a", Name: "Ann", Email: "ann@example.com", AccountID: "001a"},
				{ID: "003b", Name: "Bob", Email: "bob@example.com"},
			}
			return nil
		},
		insertCollectionFn: func(ctx context.Context, sObjectName string, records []map[string]any) ([]salesforce.CollectionResult, error) {
			insertedObject = sObjectName
			insertedRecords = records
			results := make([]salesforce.CollectionResult, len(records))
			for i := range records {
				results[i] = salesforce.CollectionResult{ID: "00T", Success: true}
			}
			return results, nil
		},
	}

	s := New(client, WithLogger(zap.NewNop()), WithRetryConfig(fastRetry()))
	sum, err := s.Run(context.Background(), testDataset(), testPoints(), riskyResult(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Selected)
	assert.Equal(t, 2, sum.Matched)
	assert.Equal(t, 0, sum.Unmatched)
	assert.Equal(t, 2, sum.TasksCreated)
	assert.Equal(t, 0, sum.TasksFailed)

	assert.Equal(t, "Task", insertedObject)
	require.Len(t, insertedRecords, 2)
	// Candidates arrive sorted by risk, so Ann comes first.
	assert.Equal(t, "003a", insertedRecords[0]["WhoId"])
	assert.Equal(t, "001a", insertedRecords[0]["WhatId"])
	assert.Equal(t, "003b", insertedRecords[1]["WhoId"])
}

func TestSyncer_Run_NothingActionable(t *testing.T) {
	queried := false
	client := &mockSFClient{
		queryFn: func(ctx context.Context, soql string, out any) error {
			queried = true
			return nil
		},
	}

	s := New(client, WithLogger(zap.NewNop()))
	result := &model.ProximityAnalysisResult{}

	sum, err := s.Run(context.Background(), testDataset(), nil, result, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Selected)
	assert.False(t, queried)
}

func TestSyncer_Run_DryRun(t *testing.T) {
	inserted := false
	client := &mockSFClient{
		queryFn: func(ctx context.Context, soql string, out any) error {
			contacts := out.(*[]salesforce.Contact)
			*contacts = []salesforce.Contact{
				{ID: "003a", Email: "ann@example.com"},
			}
			return nil
		},
		insertCollectionFn: func(ctx context.Context, sObjectName string, records []map[string]any) ([]salesforce.CollectionResult, error) {
			inserted = true
			return nil, nil
		},
	}

	s := New(client, WithLogger(zap.NewNop()), WithRetryConfig(fastRetry()))
	sum, err := s.Run(context.Background(), testDataset(), testPoints(), riskyResult(), Options{DryRun: true})
	require.NoError(t, err)

	assert.True(t, sum.DryRun)
	assert.Equal(t, 2, sum.Selected)
	assert.Equal(t, 1, sum.Matched)
	assert.Equal(t, 1, sum.Unmatched)
	assert.Equal(t, 0, sum.TasksCreated)
	assert.False(t, inserted)
}

func TestSyncer_Run_ContactLookupError(t *testing.T) {
	client := &mockSFClient{
		queryFn: func(ctx context.Context, soql string, out any) error {
			return assert.AnError
		},
	}

	s := New(client, WithLogger(zap.NewNop()), WithRetryConfig(fastRetry()))
	_, err := s.Run(context.Background(), testDataset(), testPoints(), riskyResult(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync: find contacts")
}

func TestSyncer_Run_InsertError(t *testing.T) {
	client := &mockSFClient{
		queryFn: func(ctx context.Context, soql string, out any) error {
			contacts := out.(*[]salesforce.Contact)
			*contacts = []salesforce.Contact{
				{ID: "003a", Email: "ann@example.com"},
			}
			return nil
		},
		insertCollectionFn: func(ctx context.Context, sObjectName string, records []map[string]any) ([]salesforce.CollectionResult, error) {
			return nil, assert.AnError
		},
	}

	s := New(client, WithLogger(zap.NewNop()), WithRetryConfig(fastRetry()))
	_, err := s.Run(context.Background(), testDataset(), testPoints(), riskyResult(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync: insert tasks")
}

func TestSyncer_Run_PartialInsertFailure(t *testing.T) {
	client := &mockSFClient{
		queryFn: func(ctx context.Context, soql string, out any) error {
			contacts := out.(*[]salesforce.Contact)
			*contacts = []salesforce.Contact{
				{ID: "003a", Email: "ann@example.com"},
				{ID: "003b", Email: "bob@example.com"},
			}
			return nil
		},
		insertCollectionFn: func(ctx context.Context, sObjectName string, records []map[string]any) ([]salesforce.CollectionResult, error) {
			return []salesforce.CollectionResult{
				{ID: "00Ta", Success: true},
				{Success: false, Errors: []string{"FIELD_CUSTOM_VALIDATION_EXCEPTION"}},
			}, nil
		},
	}

	s := New(client, WithLogger(zap.NewNop()), WithRetryConfig(fastRetry()))
	sum, err := s.Run(context.Background(), testDataset(), testPoints(), riskyResult(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.TasksCreated)
	assert.Equal(t, 1, sum.TasksFailed)
}

func TestSyncer_Run_MinRiskFloor(t *testing.T) {
	var inserted []map[string]any
	client := &mockSFClient{
		queryFn: func(ctx context.Context, soql string, out any) error {
			// Only Ann should be looked up; Bob sits below the floor.
			assert.NotContains(t, soql, "bob@example.com")
			contacts := out.(*[]salesforce.Contact)
			*contacts = []salesforce.Contact{
				{ID: "003a", Email: "ann@example.com"},
			}
			return nil
		},
		insertCollectionFn: func(ctx context.Context, sObjectName string, records []map[string]any) ([]salesforce.CollectionResult, error) {
			inserted = records
			return []salesforce.CollectionResult{{ID: "00Ta", Success: true}}, nil
		},
	}

	s := New(client, WithLogger(zap.NewNop()), WithRetryConfig(fastRetry()))
	sum, err := s.Run(context.Background(), testDataset(), testPoints(), riskyResult(), Options{MinRiskScore: 75})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Selected)
	assert.Equal(t, 1, sum.TasksCreated)
	require.Len(t, inserted, 1)
	assert.Equal(t, "003a", inserted[0]["WhoId"])
}
