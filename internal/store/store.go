// Package store persists datasets, their customer responses and analysis
// runs, with SQLite and PostgreSQL backends behind a common interface.
package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/JaimeV365/segmentor-sub003/internal/config"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// ErrNotFound marks lookups and updates of IDs with no matching row. Both
// drivers wrap it; match with eris.Is or errors.Is.
var ErrNotFound = eris.New("not found")

// Store is the persistence interface for datasets, customers and runs.
type Store interface {
	CreateDataset(ctx context.Context, d model.Dataset) (*model.Dataset, error)
	GetDataset(ctx context.Context, id string) (*model.Dataset, error)
	ListDatasets(ctx context.Context) ([]model.Dataset, error)
	UpdateDataset(ctx context.Context, d model.Dataset) error
	DeleteDataset(ctx context.Context, id string) error

	// ReplaceCustomers swaps the full customer set of a dataset in one
	// transaction and refreshes the dataset's customer count.
	ReplaceCustomers(ctx context.Context, datasetID string, points []model.DataPoint) (int, error)
	ListCustomers(ctx context.Context, datasetID string) ([]model.DataPoint, error)
	CountCustomers(ctx context.Context, datasetID string) (int, error)

	CreateRun(ctx context.Context, datasetID string) (*model.AnalysisRun, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, runErr string) error
	UpdateRunResult(ctx context.Context, runID string, result *model.ProximityAnalysisResult) error
	GetRun(ctx context.Context, runID string) (*model.AnalysisRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error)

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// RunFilter restricts ListRuns results. Zero fields are ignored.
type RunFilter struct {
	DatasetID    string
	Status       model.RunStatus
	CreatedAfter time.Time
	Limit        int
	Offset       int
}

// DefaultSQLitePath returns the fallback database location under the
// user's home directory.
func DefaultSQLitePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "store: resolve home dir")
	}
	return filepath.Join(home, ".segmentor", "segmentor.db"), nil
}

// Open creates the Store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			path, err := DefaultSQLitePath()
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, eris.Wrap(err, "store: create data dir")
			}
			dsn = path
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, cfg.MaxConns)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}
