package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/nectar-cli/internal/model"
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
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	inputs     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS artifacts (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	stage      TEXT NOT NULL,
	row_count  INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (run_id, stage)
);

CREATE TABLE IF NOT EXISTS plant_calories (
	run_id               TEXT NOT NULL REFERENCES runs(id),
	seq                  INTEGER NOT NULL,
	row_id               INTEGER NOT NULL,
	species_code         TEXT NOT NULL,
	species_for_calories TEXT NOT NULL,
	bound                TEXT NOT NULL,
	num_flowers_estimate REAL,
	calories_per_plant   REAL,
	missing_reason       TEXT NOT NULL,
	data                 TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_plant_calories_species ON plant_calories(run_id, species_code);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, inputs map[string]string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal inputs")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, inputs, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(inputsJSON), string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		Inputs:    inputs,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, inputs, status, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, inputs, status, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveArtifact(ctx context.Context, runID string, stage model.Stage, rowCount int, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (run_id, stage, row_count, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, string(stage), rowCount, string(payload), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save artifact %s/%s", runID, stage)
}

func (s *SQLiteStore) GetArtifact(ctx context.Context, runID string, stage model.Stage) (*model.Artifact, error) {
	var a model.Artifact
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, stage, row_count, payload, created_at FROM artifacts WHERE run_id = ? AND stage = ?`,
		runID, string(stage),
	).Scan(&a.RunID, &a.Stage, &a.RowCount, &payload, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get artifact %s/%s", runID, stage)
	}
	a.Payload = []byte(payload)
	return &a, nil
}

func (s *SQLiteStore) ListArtifacts(ctx context.Context, runID string) ([]model.Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, stage, row_count, created_at FROM artifacts WHERE run_id = ? ORDER BY created_at, stage`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list artifacts")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Artifact
	for rows.Next() {
		var a model.Artifact
		if err := rows.Scan(&a.RunID, &a.Stage, &a.RowCount, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan artifact")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list artifacts iterate")
}

func (s *SQLiteStore) SavePlantCalories(ctx context.Context, runID string, plants []model.PlantCalories) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin plant calories")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM plant_calories WHERE run_id = ?`, runID); err != nil {
		return eris.Wrapf(err, "sqlite: clear plant calories %s", runID)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO plant_calories
		(run_id, seq, row_id, species_code, species_for_calories, bound, num_flowers_estimate, calories_per_plant, missing_reason, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare plant calories")
	}
	defer stmt.Close() //nolint:errcheck

	rows, err := plantRows(runID, plants)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r...); err != nil {
			return eris.Wrapf(err, "sqlite: insert plant calories %s", runID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit plant calories")
}

func (s *SQLiteStore) ListPlantCalories(ctx context.Context, runID string, filter PlantFilter) ([]model.PlantCalories, error) {
	query := `SELECT data FROM plant_calories WHERE run_id = ?`
	args := []any{runID}
	if filter.MissingOnly {
		query += ` AND (num_flowers_estimate IS NULL OR calories_per_plant IS NULL)`
	}
	if filter.Species != "" {
		query += ` AND (species_code = ? OR species_for_calories = ?)`
		args = append(args, filter.Species, filter.Species)
	}
	query += ` ORDER BY seq`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list plant calories")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.PlantCalories
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan plant calories")
		}
		var p model.PlantCalories
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal plant calories")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list plant calories iterate")
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

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var inputsJSON string

	err := row.Scan(&r.ID, &inputsJSON, &r.Status, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrap(ErrNotFound, "run")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if err := json.Unmarshal([]byte(inputsJSON), &r.Inputs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal inputs")
	}
	return &r, nil
}

// plantCaloriesColumns is shared by both backends.
var plantCaloriesColumns = []string{
	"run_id", "seq", "row_id", "species_code", "species_for_calories", "bound",
	"num_flowers_estimate", "calories_per_plant", "missing_reason", "data",
}

func plantRows(runID string, plants []model.PlantCalories) ([][]any, error) {
	rows := make([][]any, 0, len(plants))
	for i, p := range plants {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, eris.Wrap(err, "store: marshal plant calories")
		}
		rows = append(rows, []any{
			runID, i, p.RowID, p.SpeciesCode, p.SpeciesForCalories, string(p.Bound),
			p.NumFlowersEstimate.Ptr(), p.CaloriesPerPlant.Ptr(), string(p.MissingReason), string(data),
		})
	}
	return rows, nil
}
