package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/monitoring"
	syncpkg "github.com/JaimeV365/segmentor-sub003/internal/sync"
	"github.com/JaimeV365/segmentor-sub003/internal/workflow"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 7, 10, 9, 30, 0, 0, time.UTC)
	runs := []model.AnalysisRun{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			DatasetID: "ds012345-0000-0000-0000-000000000000",
			Status:    model.RunStatusComplete,
			Result: &model.ProximityAnalysisResult{
				Summary: model.ProximitySummary{TotalCustomers: 42, AverageRiskScore: 61.5},
			},
			CreatedAt: now,
			UpdatedAt: now.Add(3 * time.Second),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			DatasetID: "ds012345-0000-0000-0000-000000000000",
			Status:    model.RunStatusFailed,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-1 * time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "DATASET")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "42")
	assert.Contains(t, output, "61.5")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "2026-07-10 09:30")
	// Runs without a result show placeholders instead of zeros.
	assert.Contains(t, output, "-")
}

func TestFormatDatasetsList(t *testing.T) {
	datasets := []model.Dataset{
		{
			ID:                "aaa11111-0000-0000-0000-000000000000",
			Name:              "Q3 customer survey",
			SatisfactionScale: "1-7",
			LoyaltyScale:      "1-5",
			Midpoint:          model.Midpoint{Sat: 4, Loy: 3},
			CustomerCount:     1200,
			Premium:           true,
			CreatedAt:         time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	formatDatasetsList(&buf, datasets)

	output := buf.String()
	assert.Contains(t, output, "aaa11111")
	assert.Contains(t, output, "Q3 customer survey")
	assert.Contains(t, output, "1-7/1-5")
	assert.Contains(t, output, "4.0/3.0")
	assert.Contains(t, output, "1200")
	assert.Contains(t, output, "yes")
}

func TestFormatImportSummary(t *testing.T) {
	sum := model.ImportSummary{
		RowsRead:    100,
		Imported:    95,
		Overwritten: 2,
		Skipped:     5,
		Issues: []model.ImportIssue{
			{Row: 7, Reason: "satisfaction out of range"},
			{Row: 12, Reason: "missing loyalty"},
		},
	}

	var buf bytes.Buffer
	formatImportSummary(&buf, sum)

	output := buf.String()
	assert.Contains(t, output, "Rows read:")
	assert.Contains(t, output, "100")
	assert.Contains(t, output, "95")
	assert.Contains(t, output, "Issues (2):")
	assert.Contains(t, output, "row 7: satisfaction out of range")
	assert.Contains(t, output, "row 12: missing loyalty")
}

func TestFormatSyncSummary(t *testing.T) {
	sum := &syncpkg.Summary{
		Selected:     10,
		Matched:      8,
		Unmatched:    2,
		TasksCreated: 7,
		TasksFailed:  1,
		DryRun:       true,
	}

	var buf bytes.Buffer
	formatSyncSummary(&buf, sum)

	output := buf.String()
	assert.Contains(t, output, "dry run")
	assert.Contains(t, output, "Selected:")
	assert.Contains(t, output, "10")
	assert.Contains(t, output, "Tasks created:")
}

func TestFormatRunResult(t *testing.T) {
	run := &model.AnalysisRun{
		ID:     "run12345-0000-0000-0000-000000000000",
		Status: model.RunStatusComplete,
		Result: &model.ProximityAnalysisResult{
			Settings: model.ProximitySettings{IsAvailable: true, Threshold: 1.0},
			Summary:  model.ProximitySummary{TotalCustomers: 5, AverageRiskScore: 70},
			Details: []model.ProximityDetail{
				{Label: "loyalists_close_to_mercenaries", CustomerCount: 3, AverageDistance: 1.2, RiskLevel: model.RiskHigh},
			},
			Crossroads: []model.CrossroadsCustomer{{ID: "c1"}},
		},
	}

	var buf bytes.Buffer
	formatRunResult(&buf, run)

	output := buf.String()
	assert.Contains(t, output, "run12345")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "loyalists_close_to_mercenaries")
	assert.Contains(t, output, "Crossroads:")
	assert.Contains(t, output, "RELATIONSHIP")
}

func TestFormatRunResult_Unavailable(t *testing.T) {
	run := &model.AnalysisRun{
		ID:     "run12345-0000-0000-0000-000000000000",
		Status: model.RunStatusComplete,
		Result: &model.ProximityAnalysisResult{
			Settings: model.ProximitySettings{
				IsAvailable:       false,
				UnavailableReason: "grid too small for proximity analysis",
			},
		},
	}

	var buf bytes.Buffer
	formatRunResult(&buf, run)

	output := buf.String()
	assert.Contains(t, output, "unavailable")
	assert.Contains(t, output, "grid too small")
	assert.NotContains(t, output, "RELATIONSHIP")
}

func TestFormatRunResult_Failed(t *testing.T) {
	run := &model.AnalysisRun{
		ID:     "run12345-0000-0000-0000-000000000000",
		Status: model.RunStatusFailed,
		Error:  "pipeline: load customers: boom",
	}

	var buf bytes.Buffer
	formatRunResult(&buf, run)

	output := buf.String()
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "pipeline: load customers: boom")
}

func TestFormatRefreshResult(t *testing.T) {
	res := &workflow.RefreshResult{
		Succeeded: 1,
		Failed:    1,
		Outcomes: []workflow.DatasetOutcome{
			{DatasetID: "ds1", Name: "Good", RunID: "run11111-0000-0000-0000-000000000000", AverageRiskScore: 55.5},
			{DatasetID: "ds2", Name: "Bad", Error: "analysis failed"},
		},
	}

	var buf bytes.Buffer
	formatRefreshResult(&buf, res)

	output := buf.String()
	assert.Contains(t, output, "Good")
	assert.Contains(t, output, "run11111")
	assert.Contains(t, output, "55.5")
	assert.Contains(t, output, "Bad")
	assert.Contains(t, output, "analysis failed")
}

func TestFormatStatus(t *testing.T) {
	snap := &monitoring.MetricsSnapshot{
		LookbackHours: 24,
		RunsTotal:     10,
		RunsComplete:  8,
		RunsFailed:    2,
		RunFailRate:   0.2,
		AvgRiskScore:  58.3,
		Datasets:      3,
		Customers:     900,
	}
	alerts := []monitoring.Alert{
		{Type: monitoring.AlertRunFailureRate, Message: "failure rate 20% over threshold"},
	}

	var buf bytes.Buffer
	formatStatus(&buf, snap, alerts)

	output := buf.String()
	assert.Contains(t, output, "Runs:")
	assert.Contains(t, output, "10")
	assert.Contains(t, output, "Fail rate:")
	assert.Contains(t, output, "20%")
	assert.Contains(t, output, "58.3")
	assert.Contains(t, output, "Alerts (1):")
	assert.Contains(t, output, "run_failure_rate")
}

func TestFormatStatus_NoAlerts(t *testing.T) {
	var buf bytes.Buffer
	formatStatus(&buf, &monitoring.MetricsSnapshot{LookbackHours: 24}, nil)

	assert.Contains(t, buf.String(), "No alerts.")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
}

func TestOverridesFromFlags(t *testing.T) {
	newCmd := func() *cobra.Command {
		c := &cobra.Command{}
		c.Flags().Float64("threshold", 0, "")
		c.Flags().Bool("special-zones", false, "")
		c.Flags().Bool("near-apostles", false, "")
		return c
	}

	t.Run("nothing set keeps dataset settings", func(t *testing.T) {
		ov := overridesFromFlags(newCmd())
		assert.Zero(t, ov.Threshold)
		assert.Nil(t, ov.ShowSpecialZones)
		assert.Nil(t, ov.ShowNearApostles)
	})

	t.Run("explicit false still overrides", func(t *testing.T) {
		c := newCmd()
		require.NoError(t, c.Flags().Set("special-zones", "false"))
		ov := overridesFromFlags(c)
		require.NotNil(t, ov.ShowSpecialZones)
		assert.False(t, *ov.ShowSpecialZones)
	})

	t.Run("threshold and toggles", func(t *testing.T) {
		c := newCmd()
		require.NoError(t, c.Flags().Set("threshold", "0.5"))
		require.NoError(t, c.Flags().Set("near-apostles", "true"))
		ov := overridesFromFlags(c)
		assert.Equal(t, 0.5, ov.Threshold)
		require.NotNil(t, ov.ShowNearApostles)
		assert.True(t, *ov.ShowNearApostles)
	})
}
