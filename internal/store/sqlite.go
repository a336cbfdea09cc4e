package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	id                   TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	satisfaction_scale   TEXT NOT NULL,
	loyalty_scale        TEXT NOT NULL,
	midpoint             TEXT NOT NULL,
	apostles_zone_size   INTEGER NOT NULL DEFAULT 1,
	terrorists_zone_size INTEGER NOT NULL DEFAULT 1,
	show_special_zones   INTEGER NOT NULL DEFAULT 0,
	show_near_apostles   INTEGER NOT NULL DEFAULT 0,
	premium              INTEGER NOT NULL DEFAULT 0,
	customer_count       INTEGER NOT NULL DEFAULT 0,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS customers (
	dataset_id   TEXT NOT NULL REFERENCES datasets(id),
	id           TEXT NOT NULL,
	name         TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	group_name   TEXT NOT NULL DEFAULT '',
	satisfaction REAL NOT NULL,
	loyalty      REAL NOT NULL,
	excluded     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (dataset_id, id)
);

CREATE TABLE IF NOT EXISTS analysis_runs (
	id         TEXT PRIMARY KEY,
	dataset_id TEXT NOT NULL REFERENCES datasets(id),
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_customers_dataset ON customers(dataset_id);
CREATE INDEX IF NOT EXISTS idx_runs_dataset ON analysis_runs(dataset_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON analysis_runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON analysis_runs(created_at);
CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateDataset(ctx context.Context, d model.Dataset) (*model.Dataset, error) {
	d.ID = uuid.New().String()
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	d.CustomerCount = 0

	midJSON, err := json.Marshal(d.Midpoint)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal midpoint")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, satisfaction_scale, loyalty_scale, midpoint,
		 apostles_zone_size, terrorists_zone_size, show_special_zones, show_near_apostles,
		 premium, customer_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.SatisfactionScale, d.LoyaltyScale, string(midJSON),
		d.ApostlesZoneSize, d.TerroristsZoneSize, d.ShowSpecialZones, d.ShowNearApostles,
		d.Premium, d.CustomerCount, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert dataset")
	}
	return &d, nil
}

func (s *SQLiteStore) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, satisfaction_scale, loyalty_scale, midpoint,
		 apostles_zone_size, terrorists_zone_size, show_special_zones, show_near_apostles,
		 premium, customer_count, created_at, updated_at
		 FROM datasets WHERE id = ?`, id)
	return scanDataset(row)
}

func (s *SQLiteStore) ListDatasets(ctx context.Context) ([]model.Dataset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, satisfaction_scale, loyalty_scale, midpoint,
		 apostles_zone_size, terrorists_zone_size, show_special_zones, show_near_apostles,
		 premium, customer_count, created_at, updated_at
		 FROM datasets ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list datasets")
	}
	defer rows.Close()

	var datasets []model.Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *d)
	}
	return datasets, eris.Wrap(rows.Err(), "sqlite: list datasets iterate")
}

func (s *SQLiteStore) UpdateDataset(ctx context.Context, d model.Dataset) error {
	midJSON, err := json.Marshal(d.Midpoint)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal midpoint")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE datasets SET name = ?, satisfaction_scale = ?, loyalty_scale = ?, midpoint = ?,
		 apostles_zone_size = ?, terrorists_zone_size = ?, show_special_zones = ?,
		 show_near_apostles = ?, premium = ?, updated_at = ?
		 WHERE id = ?`,
		d.Name, d.SatisfactionScale, d.LoyaltyScale, string(midJSON),
		d.ApostlesZoneSize, d.TerroristsZoneSize, d.ShowSpecialZones,
		d.ShowNearApostles, d.Premium, time.Now().UTC(), d.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update dataset %s", d.ID)
	}
	return checkRowsAffected(res, "dataset", d.ID)
}

func (s *SQLiteStore) DeleteDataset(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete dataset")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM analysis_runs WHERE dataset_id = ?`, id); err != nil {
		return eris.Wrapf(err, "sqlite: delete runs for %s", id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE dataset_id = ?`, id); err != nil {
		return eris.Wrapf(err, "sqlite: delete customers for %s", id)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete dataset %s", id)
	}
	if err := checkRowsAffected(res, "dataset", id); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete dataset")
}

func (s *SQLiteStore) ReplaceCustomers(ctx context.Context, datasetID string, points []model.DataPoint) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin replace customers")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE dataset_id = ?`, datasetID); err != nil {
		return 0, eris.Wrapf(err, "sqlite: clear customers for %s", datasetID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO customers (dataset_id, id, name, email, group_name, satisfaction, loyalty, excluded)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare customer insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, datasetID, p.ID, p.Name, p.Email, p.Group,
			p.Satisfaction, p.Loyalty, p.Excluded); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert customer %s", p.ID)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE datasets SET customer_count = ?, updated_at = ? WHERE id = ?`,
		len(points), time.Now().UTC(), datasetID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: update customer count for %s", datasetID)
	}
	if err := checkRowsAffected(res, "dataset", datasetID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit replace customers")
	}
	return len(points), nil
}

func (s *SQLiteStore) ListCustomers(ctx context.Context, datasetID string) ([]model.DataPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, group_name, satisfaction, loyalty, excluded
		 FROM customers WHERE dataset_id = ? ORDER BY id`, datasetID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list customers")
	}
	defer rows.Close()

	var points []model.DataPoint
	for rows.Next() {
		var p model.DataPoint
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Group,
			&p.Satisfaction, &p.Loyalty, &p.Excluded); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan customer")
		}
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "sqlite: list customers iterate")
}

func (s *SQLiteStore) CountCustomers(ctx context.Context, datasetID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM customers WHERE dataset_id = ?`, datasetID).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count customers")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, datasetID string) (*model.AnalysisRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_runs (id, dataset_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, datasetID, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.AnalysisRun{
		ID:        id,
		DatasetID: datasetID,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, runErr string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE analysis_runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), runErr, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) UpdateRunResult(ctx context.Context, runID string, result *model.ProximityAnalysisResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE analysis_runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run result %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.AnalysisRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, dataset_id, status, result, error, created_at, updated_at
		 FROM analysis_runs WHERE id = ?`, runID)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error) {
	query := `SELECT id, dataset_id, status, result, error, created_at, updated_at FROM analysis_runs WHERE 1=1`
	args := []any{}

	if filter.DatasetID != "" {
		query += ` AND dataset_id = ?`
		args = append(args, filter.DatasetID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDataset(row scannable) (*model.Dataset, error) {
	var d model.Dataset
	var midJSON string

	err := row.Scan(&d.ID, &d.Name, &d.SatisfactionScale, &d.LoyaltyScale, &midJSON,
		&d.ApostlesZoneSize, &d.TerroristsZoneSize, &d.ShowSpecialZones, &d.ShowNearApostles,
		&d.Premium, &d.CustomerCount, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "dataset")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan dataset")
	}

	if err := json.Unmarshal([]byte(midJSON), &d.Midpoint); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal midpoint")
	}
	return &d, nil
}

func scanRun(row scannable) (*model.AnalysisRun, error) {
	var r model.AnalysisRun
	var resultJSON sql.NullString

	err := row.Scan(&r.ID, &r.DatasetID, &r.Status, &resultJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "run")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if resultJSON.Valid {
		r.Result = &model.ProximityAnalysisResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &r, nil
}
