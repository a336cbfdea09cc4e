// Package pipeline orchestrates one full analysis run: load the dataset and
// its customers, run the proximity engine (cache-aware), and persist the run
// record with its result.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/cache"
	"github.com/JaimeV365/segmentor-sub003/internal/grid"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/proximity"
	"github.com/JaimeV365/segmentor-sub003/internal/store"
)

// Pipeline runs dataset analyses against the store, reusing cached results
// when the dataset and settings are unchanged.
type Pipeline struct {
	store store.Store
	cache *cache.AnalysisCache
	log   *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache attaches a result cache. Without one every run recomputes.
func WithCache(c *cache.AnalysisCache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithLogger replaces the global logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// New creates a Pipeline over the given store.
func New(st store.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store: st,
		log:   zap.L(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Overrides adjust a single run without touching the stored dataset
// configuration. Nil pointer fields keep the dataset's setting.
type Overrides struct {
	// Threshold overrides the lateral threshold; zero means the scale default.
	Threshold        float64
	ShowSpecialZones *bool
	ShowNearApostles *bool
}

// analyzeOptions merges dataset settings with per-run overrides.
func analyzeOptions(ds model.Dataset, ov Overrides) proximity.AnalyzeOptions {
	opts := proximity.AnalyzeOptions{
		IsPremium:        ds.Premium,
		Threshold:        ov.Threshold,
		ShowSpecialZones: ds.ShowSpecialZones,
		ShowNearApostles: ds.ShowNearApostles,
	}
	if ov.ShowSpecialZones != nil {
		opts.ShowSpecialZones = *ov.ShowSpecialZones
	}
	if ov.ShowNearApostles != nil {
		opts.ShowNearApostles = *ov.ShowNearApostles
	}
	return opts
}

// Run executes one analysis for the dataset and records it as an
// AnalysisRun. The returned run carries the result on success; on a failed
// analysis the run is marked failed and the error returned.
func (p *Pipeline) Run(ctx context.Context, datasetID string, ov Overrides) (*model.AnalysisRun, error) {
	log := p.log.With(zap.String("dataset", datasetID))

	ds, err := p.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load dataset")
	}
	points, err := p.store.ListCustomers(ctx, datasetID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load customers")
	}

	run, err := p.store.CreateRun(ctx, datasetID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log = log.With(zap.String("run", run.ID))

	setStatus := func(status model.RunStatus, runErr string) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status, runErr); statusErr != nil {
			log.Warn("pipeline: failed to update run status", zap.Error(statusErr))
		}
	}
	setStatus(model.RunStatusRunning, "")

	result, fromCache, err := p.analyze(*ds, points, ov)
	if err != nil {
		setStatus(model.RunStatusFailed, err.Error())
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
		return run, err
	}

	if err := p.store.UpdateRunResult(ctx, run.ID, result); err != nil {
		return run, eris.Wrap(err, "pipeline: save run result")
	}
	run.Status = model.RunStatusComplete
	run.Result = result

	log.Info("pipeline: analysis complete",
		zap.Int("customers", len(points)),
		zap.Int("matched", result.Summary.TotalCustomers),
		zap.Float64("avg_risk", result.Summary.AverageRiskScore),
		zap.Bool("from_cache", fromCache),
	)
	return run, nil
}

// Analyze runs the engine for a dataset's current customers without
// recording a run. Used by previews and the report command.
func (p *Pipeline) Analyze(ctx context.Context, datasetID string, ov Overrides) (*model.ProximityAnalysisResult, error) {
	ds, err := p.store.GetDataset(ctx, datasetID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load dataset")
	}
	points, err := p.store.ListCustomers(ctx, datasetID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load customers")
	}
	result, _, err := p.analyze(*ds, points, ov)
	return result, err
}

// analyze runs the engine, consulting the cache first. The bool reports a
// cache hit.
func (p *Pipeline) analyze(ds model.Dataset, points []model.DataPoint, ov Overrides) (*model.ProximityAnalysisResult, bool, error) {
	opts := analyzeOptions(ds, ov)

	var key string
	if p.cache != nil {
		key = cache.Key(ds, opts, points)
		if res, ok := p.cache.Get(key); ok {
			return res, true, nil
		}
	}

	cls, err := proximity.NewClassifier(
		ds.SatisfactionScale, ds.LoyaltyScale, ds.Midpoint,
		ds.ApostlesZoneSize, ds.TerroristsZoneSize,
		proximity.WithLogger(p.log),
	)
	if err != nil {
		return nil, false, eris.Wrap(err, "pipeline: build classifier")
	}
	assigner := grid.NewStandardAssigner(ds.Midpoint, cls.Zones(), opts.ShowSpecialZones, opts.ShowNearApostles)

	result := cls.AnalyzeProximity(points, assigner, opts)
	if p.cache != nil {
		p.cache.Set(key, result)
	}
	return result, false, nil
}
