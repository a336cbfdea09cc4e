package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeV365/segmentor-sub003/internal/cache"
	"github.com/JaimeV365/segmentor-sub003/internal/config"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/store"
)

// mockStore implements store.Store for testing.
type mockStore struct {
	runs        []model.AnalysisRun
	datasets    []model.Dataset
	listRunsErr error
	listDSErr   error
}

func (m *mockStore) ListRuns(_ context.Context, filter store.RunFilter) ([]model.AnalysisRun, error) {
	if m.listRunsErr != nil {
		return nil, m.listRunsErr
	}
	var filtered []model.AnalysisRun
	for _, r := range m.runs {
		if !filter.CreatedAfter.IsZero() && r.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

func (m *mockStore) ListDatasets(_ context.Context) ([]model.Dataset, error) {
	if m.listDSErr != nil {
		return nil, m.listDSErr
	}
	return m.datasets, nil
}

// Unused store methods — satisfy the interface.
func (m *mockStore) CreateDataset(context.Context, model.Dataset) (*model.Dataset, error) {
	return nil, nil
}
func (m *mockStore) GetDataset(context.Context, string) (*model.Dataset, error) { return nil, nil }
func (m *mockStore) UpdateDataset(context.Context, model.Dataset) error         { return nil }
func (m *mockStore) DeleteDataset(context.Context, string) error                { return nil }
func (m *mockStore) ReplaceCustomers(context.Context, string, []model.DataPoint) (int, error) {
	return 0, nil
}
func (m *mockStore) ListCustomers(context.Context, string) ([]model.DataPoint, error) {
	return nil, nil
}
func (m *mockStore) CountCustomers(context.Context, string) (int, error) { return 0, nil }
func (m *mockStore) CreateRun(context.Context, string) (*model.AnalysisRun, error) {
	return nil, nil
}
func (m *mockStore) UpdateRunStatus(context.Context, string, model.RunStatus, string) error {
	return nil
}
func (m *mockStore) UpdateRunResult(context.Context, string, *model.ProximityAnalysisResult) error {
	return nil
}
func (m *mockStore) GetRun(context.Context, string) (*model.AnalysisRun, error) { return nil, nil }
func (m *mockStore) Ping(context.Context) error                                 { return nil }
func (m *mockStore) Migrate(context.Context) error                              { return nil }
func (m *mockStore) Close() error                                               { return nil }

func completeResult(totalCustomers int, avgRisk float64) *model.ProximityAnalysisResult {
	return &model.ProximityAnalysisResult{
		Summary: model.ProximitySummary{
			TotalCustomers:   totalCustomers,
			AverageRiskScore: avgRisk,
		},
	}
}

func TestCollector_EmptyStore(t *testing.T) {
	st := &mockStore{}
	c := NewCollector(st, nil)

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 0, snap.RunsTotal)
	assert.Equal(t, 0, snap.RunsFailed)
	assert.Equal(t, 0.0, snap.RunFailRate)
	assert.Equal(t, 0, snap.Datasets)
	assert.Equal(t, 24, snap.LookbackHours)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollector_RunMetrics(t *testing.T) {
	now := time.Now().UTC()
	st := &mockStore{
		runs: []model.AnalysisRun{
			{ID: "1", Status: model.RunStatusComplete, CreatedAt: now.Add(-1 * time.Hour), Result: completeResult(6, 80)},
			{ID: "2", Status: model.RunStatusComplete, CreatedAt: now.Add(-2 * time.Hour), Result: completeResult(4, 60)},
			{ID: "3", Status: model.RunStatusFailed, CreatedAt: now.Add(-3 * time.Hour)},
			{ID: "4", Status: model.RunStatusQueued, CreatedAt: now.Add(-30 * time.Minute)},
			{ID: "5", Status: model.RunStatusRunning, CreatedAt: now.Add(-10 * time.Minute)},
			// Outside lookback window — should be filtered out.
			{ID: "6", Status: model.RunStatusFailed, CreatedAt: now.Add(-48 * time.Hour)},
		},
	}

	c := NewCollector(st, nil)
	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 5, snap.RunsTotal)
	assert.Equal(t, 2, snap.RunsComplete)
	assert.Equal(t, 1, snap.RunsFailed)
	assert.Equal(t, 1, snap.RunsQueued)
	assert.Equal(t, 1, snap.RunsRunning)
	assert.InDelta(t, 1.0/3.0, snap.RunFailRate, 0.001) // 1 failed / 3 finished
	assert.InDelta(t, 70.0, snap.AvgRiskScore, 0.001)   // (80+60)/2
	assert.Equal(t, 10, snap.AtRiskCustomers)
}

func TestCollector_DatasetMetrics(t *testing.T) {
	st := &mockStore{
		datasets: []model.Dataset{
			{ID: "d1", CustomerCount: 120, Premium: true},
			{ID: "d2", CustomerCount: 45},
			{ID: "d3", CustomerCount: 300, Premium: true},
		},
	}

	c := NewCollector(st, nil)
	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Datasets)
	assert.Equal(t, 2, snap.PremiumDatasets)
	assert.Equal(t, 465, snap.Customers)
}

func TestCollector_CacheStats(t *testing.T) {
	ac, err := cache.New(config.CacheConfig{Enabled: true, TTLMinutes: 1, MaxMB: 1})
	require.NoError(t, err)
	defer ac.Close()

	// Count one miss so the snapshot has something to report.
	_, found := ac.Get("nope")
	assert.False(t, found)

	c := NewCollector(&mockStore{}, ac)
	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, int64(0), snap.CacheHits)
	assert.Equal(t, int64(1), snap.CacheMisses)
}

func TestCollector_NilCache(t *testing.T) {
	c := NewCollector(&mockStore{}, nil)

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.CacheHits)
	assert.Equal(t, int64(0), snap.CacheMisses)
}

func TestCollector_FailureRateZeroFinished(t *testing.T) {
	now := time.Now().UTC()
	st := &mockStore{
		runs: []model.AnalysisRun{
			{ID: "1", Status: model.RunStatusQueued, CreatedAt: now.Add(-1 * time.Hour)},
			{ID: "2", Status: model.RunStatusQueued, CreatedAt: now.Add(-2 * time.Hour)},
		},
	}

	c := NewCollector(st, nil)
	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	// No finished runs, so failure rate should be 0.
	assert.Equal(t, 0.0, snap.RunFailRate)
}

func TestCollector_StoreErrors(t *testing.T) {
	c := NewCollector(&mockStore{listRunsErr: assert.AnError}, nil)
	_, err := c.Collect(context.Background(), 24)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: list runs")

	c = NewCollector(&mockStore{listDSErr: assert.AnError}, nil)
	_, err = c.Collect(context.Background(), 24)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: list datasets")
}
