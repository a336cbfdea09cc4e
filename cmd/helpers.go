package main

import (
	"context"
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/JaimeV365/segmentor-sub003/internal/cache"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/pipeline"
	"github.com/JaimeV365/segmentor-sub003/internal/store"
	sfpkg "github.com/JaimeV365/segmentor-sub003/pkg/salesforce"
)

// initStore opens the configured backend and applies pending migrations.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// analysisEnv bundles the store, cache and pipeline shared by the analyze,
// report, publish, sync and serve commands.
type analysisEnv struct {
	Store store.Store
	Cache *cache.AnalysisCache
	Pipe  *pipeline.Pipeline
}

// Close releases the cache and the store.
func (e *analysisEnv) Close() {
	if e.Cache != nil {
		e.Cache.Close()
	}
	_ = e.Store.Close()
}

func initAnalysis(ctx context.Context) (*analysisEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	env := &analysisEnv{Store: st}
	var opts []pipeline.Option
	if cfg.Cache.Enabled {
		c, err := cache.New(cfg.Cache)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		env.Cache = c
		opts = append(opts, pipeline.WithCache(c))
	}
	env.Pipe = pipeline.New(st, opts...)
	return env, nil
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (SEGMENTOR_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	var opts []sfpkg.ClientOption
	if cfg.Salesforce.RateLimitRPS > 0 {
		opts = append(opts, sfpkg.WithRateLimit(cfg.Salesforce.RateLimitRPS))
	}
	return sfpkg.NewClient(sf, opts...), nil
}

// resolveRun returns the named run after checking it belongs to the dataset,
// or the dataset's most recent complete run when runID is empty.
func resolveRun(ctx context.Context, st store.Store, datasetID, runID string) (*model.AnalysisRun, error) {
	if runID != "" {
		run, err := st.GetRun(ctx, runID)
		if err != nil {
			return nil, eris.Wrap(err, "load run")
		}
		if run.DatasetID != datasetID {
			return nil, eris.Errorf("run %s belongs to dataset %s, not %s", runID, run.DatasetID, datasetID)
		}
		if run.Result == nil {
			return nil, eris.Errorf("run %s has no result (status %s)", runID, run.Status)
		}
		return run, nil
	}

	runs, err := st.ListRuns(ctx, store.RunFilter{
		DatasetID: datasetID,
		Status:    model.RunStatusComplete,
		Limit:     1,
	})
	if err != nil {
		return nil, eris.Wrap(err, "list runs")
	}
	if len(runs) == 0 || runs[0].Result == nil {
		return nil, eris.Errorf("no complete analysis for dataset %s; run \"segmentor analyze %s\" first", datasetID, datasetID)
	}
	return &runs[0], nil
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
