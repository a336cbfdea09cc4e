// Package monitoring reports the operational health of the analysis
// service: run outcomes, dataset volume and cache effectiveness, with a
// webhook alerter for the conditions an operator should hear about.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/JaimeV365/segmentor-sub003/internal/cache"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/store"
)

// MetricsSnapshot holds a point-in-time view of system health.
type MetricsSnapshot struct {
	// Analysis run metrics (within lookback window).
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsRunning  int     `json:"runs_running"`
	RunsQueued   int     `json:"runs_queued"`
	RunFailRate  float64 `json:"run_fail_rate"`

	// AvgRiskScore averages the summary risk score over completed runs
	// that produced a result.
	AvgRiskScore float64 `json:"avg_risk_score"`
	// AtRiskCustomers sums the proximity match counts of those runs.
	AtRiskCustomers int `json:"at_risk_customers"`

	// Dataset volume (not window-bound; datasets are long-lived).
	Datasets        int `json:"datasets"`
	PremiumDatasets int `json:"premium_datasets"`
	Customers       int `json:"customers"`

	// Analysis cache effectiveness since process start.
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store and the analysis cache.
type Collector struct {
	store store.Store
	cache *cache.AnalysisCache
}

// NewCollector creates a new metrics collector. cache may be nil when
// caching is disabled; the snapshot then reports zero hits and misses.
func NewCollector(st store.Store, c *cache.AnalysisCache) *Collector {
	return &Collector{store: st, cache: c}
}

// Collect gathers a snapshot of system metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.store.ListRuns(ctx, store.RunFilter{
		CreatedAfter: cutoff,
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	var totalRisk float64
	var scoredRuns int

	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusFailed:
			snap.RunsFailed++
		case model.RunStatusRunning:
			snap.RunsRunning++
		case model.RunStatusQueued:
			snap.RunsQueued++
		}
		if r.Result != nil && r.Status == model.RunStatusComplete {
			snap.AtRiskCustomers += r.Result.Summary.TotalCustomers
			if r.Result.Summary.AverageRiskScore > 0 {
				totalRisk += r.Result.Summary.AverageRiskScore
				scoredRuns++
			}
		}
	}

	finished := snap.RunsComplete + snap.RunsFailed
	if finished > 0 {
		snap.RunFailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if scoredRuns > 0 {
		snap.AvgRiskScore = totalRisk / float64(scoredRuns)
	}

	datasets, err := c.store.ListDatasets(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list datasets")
	}
	snap.Datasets = len(datasets)
	for _, d := range datasets {
		snap.Customers += d.CustomerCount
		if d.Premium {
			snap.PremiumDatasets++
		}
	}

	if c.cache != nil {
		stats := c.cache.Stats()
		snap.CacheHits = stats.Hits
		snap.CacheMisses = stats.Misses
	}

	return snap, nil
}
