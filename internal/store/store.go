// Package store persists studies, runs, judgments, and finalized statistics
// in a local SQLite database. Structured values are stored as JSON in TEXT
// columns; the schema stays flat and queries stay simple.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/brandpulse/brandpulse/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS studies (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    created_at TEXT NOT NULL,
    definition TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    study_id TEXT NOT NULL,
    status TEXT NOT NULL,
    models TEXT NOT NULL,
    iterations INTEGER NOT NULL,
    started_at TEXT NOT NULL,
    completed_at TEXT
);

CREATE TABLE IF NOT EXISTS judgments (
    id INTEGER PRIMARY KEY,
    run_id TEXT NOT NULL,
    model TEXT NOT NULL,
    payload TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS brand_stats (
    run_id TEXT NOT NULL,
    model TEXT NOT NULL,
    brand TEXT NOT NULL,
    stats TEXT NOT NULL,
    PRIMARY KEY (run_id, model, brand)
);

CREATE INDEX IF NOT EXISTS idx_runs_study ON runs(study_id);
CREATE INDEX IF NOT EXISTS idx_judgments_run ON judgments(run_id, model);
`

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// SaveStudy inserts or replaces a study definition.
func (s *Store) SaveStudy(ctx context.Context, study *models.Study) error {
	definition, err := json.Marshal(study)
	if err != nil {
		return fmt.Errorf("marshal study: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO studies(id, category, created_at, definition) VALUES(?,?,?,?)`,
		study.ID, study.Setup.Category, time.Now().UTC().Format(time.RFC3339), string(definition),
	)
	if err != nil {
		return fmt.Errorf("insert study: %w", err)
	}
	return nil
}

// GetStudy loads one study by id.
func (s *Store) GetStudy(ctx context.Context, id string) (*models.Study, error) {
	var definition string
	err := s.db.QueryRowContext(ctx, `SELECT definition FROM studies WHERE id = ?`, id).Scan(&definition)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("study %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query study: %w", err)
	}
	var study models.Study
	if err := json.Unmarshal([]byte(definition), &study); err != nil {
		return nil, fmt.Errorf("unmarshal study %s: %w", id, err)
	}
	return &study, nil
}

// ListStudies returns all stored studies, newest first.
func (s *Store) ListStudies(ctx context.Context) ([]*models.Study, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT definition FROM studies ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query studies: %w", err)
	}
	defer rows.Close()

	var studies []*models.Study
	for rows.Next() {
		var definition string
		if err := rows.Scan(&definition); err != nil {
			return nil, fmt.Errorf("scan study: %w", err)
		}
		var study models.Study
		if err := json.Unmarshal([]byte(definition), &study); err != nil {
			return nil, fmt.Errorf("unmarshal study: %w", err)
		}
		studies = append(studies, &study)
	}
	return studies, rows.Err()
}

// DeleteStudy removes a study and everything recorded under it.
func (s *Store) DeleteStudy(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM judgments WHERE run_id IN (SELECT id FROM runs WHERE study_id = ?)`, id); err != nil {
		return fmt.Errorf("delete judgments: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM brand_stats WHERE run_id IN (SELECT id FROM runs WHERE study_id = ?)`, id); err != nil {
		return fmt.Errorf("delete brand stats: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE study_id = ?`, id); err != nil {
		return fmt.Errorf("delete runs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM studies WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete study: %w", err)
	}
	return tx.Commit()
}

// CreateRun records a new run.
func (s *Store) CreateRun(ctx context.Context, run *models.Run) error {
	modelList, err := json.Marshal(run.Models)
	if err != nil {
		return fmt.Errorf("marshal model list: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs(id, study_id, status, models, iterations, started_at) VALUES(?,?,?,?,?,?)`,
		run.ID, run.StudyID, string(run.Status), string(modelList), run.Iterations,
		run.StartedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun marks a run completed or failed.
func (s *Store) FinishRun(ctx context.Context, runID string, status models.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339), runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// GetRun loads one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*models.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, study_id, status, models, iterations, started_at, completed_at FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// ListRuns returns all runs for a study, newest first.
func (s *Store) ListRuns(ctx context.Context, studyID string) ([]*models.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, study_id, status, models, iterations, started_at, completed_at
		 FROM runs WHERE study_id = ? ORDER BY started_at DESC`, studyID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run         models.Run
		status      string
		modelList   string
		startedAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &run.StudyID, &status, &modelList, &run.Iterations, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	run.Status = models.RunStatus(status)
	if err := json.Unmarshal([]byte(modelList), &run.Models); err != nil {
		return nil, fmt.Errorf("unmarshal model list: %w", err)
	}
	t, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = t
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		run.CompletedAt = &t
	}
	return &run, nil
}

// SaveJudgments appends the judgments one model produced during a run.
func (s *Store) SaveJudgments(ctx context.Context, runID string, judgments []*models.Judgment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO judgments(run_id, model, payload) VALUES(?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, j := range judgments {
		payload, err := json.Marshal(j)
		if err != nil {
			return fmt.Errorf("marshal judgment: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, runID, j.Model, string(payload)); err != nil {
			return fmt.Errorf("insert judgment: %w", err)
		}
	}
	return tx.Commit()
}

// LoadJudgments returns all judgments one model produced during a run.
func (s *Store) LoadJudgments(ctx context.Context, runID, model string) ([]*models.Judgment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM judgments WHERE run_id = ? AND model = ? ORDER BY id`, runID, model)
	if err != nil {
		return nil, fmt.Errorf("query judgments: %w", err)
	}
	defer rows.Close()

	var judgments []*models.Judgment
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan judgment: %w", err)
		}
		var j models.Judgment
		if err := json.Unmarshal([]byte(payload), &j); err != nil {
			return nil, fmt.Errorf("unmarshal judgment: %w", err)
		}
		judgments = append(judgments, &j)
	}
	return judgments, rows.Err()
}

// SaveStatistics stores the finalized statistics one model produced in a run.
func (s *Store) SaveStatistics(ctx context.Context, runID, model string, stats []models.BrandStatistics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO brand_stats(run_id, model, brand, stats) VALUES(?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range stats {
		payload, err := json.Marshal(&stats[i])
		if err != nil {
			return fmt.Errorf("marshal brand stats: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, runID, model, stats[i].Brand, string(payload)); err != nil {
			return fmt.Errorf("insert brand stats: %w", err)
		}
	}
	return tx.Commit()
}

// LoadStatistics returns the stored statistics for one run and model, in
// insertion order.
func (s *Store) LoadStatistics(ctx context.Context, runID, model string) ([]models.BrandStatistics, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stats FROM brand_stats WHERE run_id = ? AND model = ? ORDER BY rowid`, runID, model)
	if err != nil {
		return nil, fmt.Errorf("query brand stats: %w", err)
	}
	defer rows.Close()

	var stats []models.BrandStatistics
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan brand stats: %w", err)
		}
		var bs models.BrandStatistics
		if err := json.Unmarshal([]byte(payload), &bs); err != nil {
			return nil, fmt.Errorf("unmarshal brand stats: %w", err)
		}
		stats = append(stats, bs)
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("statistics for run %s model %s: %w", runID, model, ErrNotFound)
	}
	return stats, rows.Err()
}
