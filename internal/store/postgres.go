package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/JaimeV365/segmentor-sub003/internal/db"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_dataset":       `SELECT id, name, satisfaction_scale, loyalty_scale, midpoint, apostles_zone_size, terrorists_zone_size, show_special_zones, show_near_apostles, premium, customer_count, created_at, updated_at FROM datasets WHERE id = $1`,
	"list_customers":    `SELECT id, name, email, group_name, satisfaction, loyalty, excluded FROM customers WHERE dataset_id = $1 ORDER BY id`,
	"count_customers":   `SELECT COUNT(*) FROM customers WHERE dataset_id = $1`,
	"insert_run":        `INSERT INTO analysis_runs (id, dataset_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"update_run_status": `UPDATE analysis_runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
	"update_run_result": `UPDATE analysis_runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"get_run":           `SELECT id, dataset_id, status, result, error, created_at, updated_at FROM analysis_runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, maxConns int) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	if maxConns > 0 {
		pgxCfg.MaxConns = int32(maxConns)
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name                 TEXT NOT NULL,
	satisfaction_scale   TEXT NOT NULL,
	loyalty_scale        TEXT NOT NULL,
	midpoint             JSONB NOT NULL,
	apostles_zone_size   INTEGER NOT NULL DEFAULT 1,
	terrorists_zone_size INTEGER NOT NULL DEFAULT 1,
	show_special_zones   BOOLEAN NOT NULL DEFAULT false,
	show_near_apostles   BOOLEAN NOT NULL DEFAULT false,
	premium              BOOLEAN NOT NULL DEFAULT false,
	customer_count       INTEGER NOT NULL DEFAULT 0,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS customers (
	dataset_id   TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	id           TEXT NOT NULL,
	name         TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	group_name   TEXT NOT NULL DEFAULT '',
	satisfaction DOUBLE PRECISION NOT NULL,
	loyalty      DOUBLE PRECISION NOT NULL,
	excluded     BOOLEAN NOT NULL DEFAULT false,
	PRIMARY KEY (dataset_id, id)
);

CREATE TABLE IF NOT EXISTS analysis_runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_customers_dataset ON customers(dataset_id);
CREATE INDEX IF NOT EXISTS idx_runs_dataset ON analysis_runs(dataset_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON analysis_runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON analysis_runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets(created_at DESC);
`

// customerColumns is the insert column order shared by COPY and the
// temp-table insert in ReplaceCustomers.
var customerColumns = []string{"dataset_id", "id", "name", "email", "group_name", "satisfaction", "loyalty", "excluded"}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateDataset(ctx context.Context, d model.Dataset) (*model.Dataset, error) {
	d.ID = uuid.New().String()
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	d.CustomerCount = 0

	midJSON, err := json.Marshal(d.Midpoint)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal midpoint")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO datasets (id, name, satisfaction_scale, loyalty_scale, midpoint,
		 apostles_zone_size, terrorists_zone_size, show_special_zones, show_near_apostles,
		 premium, customer_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		d.ID, d.Name, d.SatisfactionScale, d.LoyaltyScale, midJSON,
		d.ApostlesZoneSize, d.TerroristsZoneSize, d.ShowSpecialZones, d.ShowNearApostles,
		d.Premium, d.CustomerCount, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert dataset")
	}
	return &d, nil
}

func (s *PostgresStore) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	var d model.Dataset
	var midJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, name, satisfaction_scale, loyalty_scale, midpoint, apostles_zone_size, terrorists_zone_size, show_special_zones, show_near_apostles, premium, customer_count, created_at, updated_at FROM datasets WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Name, &d.SatisfactionScale, &d.LoyaltyScale, &midJSON,
		&d.ApostlesZoneSize, &d.TerroristsZoneSize, &d.ShowSpecialZones, &d.ShowNearApostles,
		&d.Premium, &d.CustomerCount, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "dataset %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get dataset %s", id)
	}

	if err := json.Unmarshal(midJSON, &d.Midpoint); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal midpoint")
	}
	return &d, nil
}

func (s *PostgresStore) ListDatasets(ctx context.Context) ([]model.Dataset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, satisfaction_scale, loyalty_scale, midpoint, apostles_zone_size, terrorists_zone_size, show_special_zones, show_near_apostles, premium, customer_count, created_at, updated_at FROM datasets ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list datasets")
	}
	defer rows.Close()

	var datasets []model.Dataset
	for rows.Next() {
		var d model.Dataset
		var midJSON []byte
		if err := rows.Scan(&d.ID, &d.Name, &d.SatisfactionScale, &d.LoyaltyScale, &midJSON,
			&d.ApostlesZoneSize, &d.TerroristsZoneSize, &d.ShowSpecialZones, &d.ShowNearApostles,
			&d.Premium, &d.CustomerCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan dataset")
		}
		if err := json.Unmarshal(midJSON, &d.Midpoint); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal midpoint")
		}
		datasets = append(datasets, d)
	}
	return datasets, eris.Wrap(rows.Err(), "postgres: list datasets iterate")
}

func (s *PostgresStore) UpdateDataset(ctx context.Context, d model.Dataset) error {
	midJSON, err := json.Marshal(d.Midpoint)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal midpoint")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE datasets SET name = $1, satisfaction_scale = $2, loyalty_scale = $3, midpoint = $4,
		 apostles_zone_size = $5, terrorists_zone_size = $6, show_special_zones = $7,
		 show_near_apostles = $8, premium = $9, updated_at = $10
		 WHERE id = $11`,
		d.Name, d.SatisfactionScale, d.LoyaltyScale, midJSON,
		d.ApostlesZoneSize, d.TerroristsZoneSize, d.ShowSpecialZones,
		d.ShowNearApostles, d.Premium, time.Now().UTC(), d.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update dataset %s", d.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "dataset %s", d.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteDataset(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete dataset %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "dataset %s", id)
	}
	return nil
}

func (s *PostgresStore) ReplaceCustomers(ctx context.Context, datasetID string, points []model.DataPoint) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin replace customers")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM customers WHERE dataset_id = $1`, datasetID); err != nil {
		return 0, eris.Wrapf(err, "postgres: clear customers for %s", datasetID)
	}

	if len(points) > 0 {
		const tempTable = "_tmp_replace_customers"
		createSQL := fmt.Sprintf(
			"CREATE TEMP TABLE %s (LIKE customers INCLUDING DEFAULTS) ON COMMIT DROP",
			pgx.Identifier{tempTable}.Sanitize(),
		)
		if _, err := tx.Exec(ctx, createSQL); err != nil {
			return 0, eris.Wrap(err, "postgres: create temp customer table")
		}

		rows := make([][]any, 0, len(points))
		for _, p := range points {
			rows = append(rows, []any{datasetID, p.ID, p.Name, p.Email, p.Group, p.Satisfaction, p.Loyalty, p.Excluded})
		}
		if _, err := db.CopyFrom(ctx, tx, tempTable, customerColumns, rows); err != nil {
			return 0, eris.Wrapf(err, "postgres: copy customers for %s", datasetID)
		}

		colList := strings.Join(customerColumns, ", ")
		insertSQL := fmt.Sprintf(
			"INSERT INTO customers (%s) SELECT %s FROM %s ON CONFLICT (dataset_id, id) DO NOTHING",
			colList, colList, pgx.Identifier{tempTable}.Sanitize(),
		)
		if _, err := tx.Exec(ctx, insertSQL); err != nil {
			return 0, eris.Wrapf(err, "postgres: insert customers for %s", datasetID)
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE datasets SET customer_count = $1, updated_at = $2 WHERE id = $3`,
		len(points), time.Now().UTC(), datasetID,
	)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: update customer count for %s", datasetID)
	}
	if tag.RowsAffected() == 0 {
		return 0, eris.Wrapf(ErrNotFound, "dataset %s", datasetID)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit replace customers")
	}
	return len(points), nil
}

func (s *PostgresStore) ListCustomers(ctx context.Context, datasetID string) ([]model.DataPoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, group_name, satisfaction, loyalty, excluded FROM customers WHERE dataset_id = $1 ORDER BY id`,
		datasetID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list customers")
	}
	defer rows.Close()

	var points []model.DataPoint
	for rows.Next() {
		var p model.DataPoint
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Group,
			&p.Satisfaction, &p.Loyalty, &p.Excluded); err != nil {
			return nil, eris.Wrap(err, "postgres: scan customer")
		}
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "postgres: list customers iterate")
}

func (s *PostgresStore) CountCustomers(ctx context.Context, datasetID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM customers WHERE dataset_id = $1`, datasetID).Scan(&n)
	return n, eris.Wrap(err, "postgres: count customers")
}

func (s *PostgresStore) CreateRun(ctx context.Context, datasetID string) (*model.AnalysisRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analysis_runs (id, dataset_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, datasetID, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.AnalysisRun{
		ID:        id,
		DatasetID: datasetID,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, runErr string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE analysis_runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(status), runErr, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, result *model.ProximityAnalysisResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE analysis_runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.AnalysisRun, error) {
	var r model.AnalysisRun
	var resultNull *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, dataset_id, status, result, error, created_at, updated_at FROM analysis_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.DatasetID, &r.Status, &resultNull, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if resultNull != nil {
		r.Result = &model.ProximityAnalysisResult{}
		if err := json.Unmarshal(*resultNull, r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error) {
	query := `SELECT id, dataset_id, status, result, error, created_at, updated_at FROM analysis_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.DatasetID != "" {
		query += fmt.Sprintf(` AND dataset_id = $%d`, argIdx)
		args = append(args, filter.DatasetID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if !filter.CreatedAfter.IsZero() {
		query += fmt.Sprintf(` AND created_at > $%d`, argIdx)
		args = append(args, filter.CreatedAfter.UTC())
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.AnalysisRun
	for rows.Next() {
		var r model.AnalysisRun
		var resultNull *[]byte

		if err := rows.Scan(&r.ID, &r.DatasetID, &r.Status, &resultNull, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if resultNull != nil {
			r.Result = &model.ProximityAnalysisResult{}
			if err := json.Unmarshal(*resultNull, r.Result); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal result")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
