// Package store persists run and sweep results in SQLite. Raw trajectory
// arrays live in Arrow files next to the database; the store holds run
// metadata and derived error metrics.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/gramlab/gram/internal/simulation"
)

// DBFile is the database file name within the results directory.
const DBFile = "gram.db"

// Store is a SQLite-backed results store.
type Store struct {
	db  *sql.DB
	dir string
}

// Open creates or opens the results store rooted at dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("opening results store: %w", err)
	}

	dbPath := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening results store: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening results store: %w", err)
	}

	return &Store{db: db, dir: dir}, nil
}

// Dir returns the results directory the store is rooted at.
func (s *Store) Dir() string { return s.dir }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func initSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at    TEXT    NOT NULL,
	model         TEXT    NOT NULL,
	trajectories  INTEGER NOT NULL,
	seed          INTEGER NOT NULL,
	mode          TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS metrics (
	run_id          INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	condition       TEXT    NOT NULL,
	above           REAL    NOT NULL,
	below           REAL    NOT NULL,
	error           REAL    NOT NULL,
	above_threshold REAL    NOT NULL,
	below_threshold REAL    NOT NULL,
	threshold_error REAL    NOT NULL,
	reached         INTEGER NOT NULL,
	PRIMARY KEY (run_id, condition)
);

CREATE TABLE IF NOT EXISTS sweep_samples (
	sweep      TEXT    NOT NULL,
	idx        INTEGER NOT NULL,
	parameters TEXT    NOT NULL,
	completed  INTEGER NOT NULL,
	PRIMARY KEY (sweep, idx)
);

CREATE TABLE IF NOT EXISTS sweep_metrics (
	sweep     TEXT    NOT NULL,
	idx       INTEGER NOT NULL,
	condition TEXT    NOT NULL,
	mode      TEXT    NOT NULL,
	value     REAL    NOT NULL,
	PRIMARY KEY (sweep, idx, condition, mode)
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// RunRecord is the stored metadata of one conditioned run.
type RunRecord struct {
	ID           int64
	CreatedAt    time.Time
	Model        string
	Trajectories int
	Seed         uint64
	Mode         string
}

// RecordRun stores a completed run and its per-condition metrics, returning
// the run ID.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord, metrics []simulation.ConditionMetrics) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	defer tx.Rollback()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, model, trajectories, seed, mode) VALUES (?, ?, ?, ?, ?)`,
		createdAt.Format(time.RFC3339), rec.Model, rec.Trajectories, int64(rec.Seed), rec.Mode)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}

	for _, m := range metrics {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO metrics (run_id, condition, above, below, error,
				above_threshold, below_threshold, threshold_error, reached)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, m.Condition, m.Above, m.Below, m.Error,
			m.AboveThreshold, m.BelowThreshold, m.ThresholdError, m.ReachedComparison)
		if err != nil {
			return 0, fmt.Errorf("recording run: condition %s: %w", m.Condition, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, model, trajectories, seed, mode FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var created string
		var seed int64
		if err := rows.Scan(&rec.ID, &created, &rec.Model, &rec.Trajectories, &seed, &rec.Mode); err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		rec.Seed = uint64(seed)
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			rec.CreatedAt = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RunMetrics returns the per-condition metrics of a stored run.
func (s *Store) RunMetrics(ctx context.Context, runID int64) ([]simulation.ConditionMetrics, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT condition, above, below, error, above_threshold, below_threshold, threshold_error, reached
		 FROM metrics WHERE run_id = ? ORDER BY condition`, runID)
	if err != nil {
		return nil, fmt.Errorf("loading run metrics: %w", err)
	}
	defer rows.Close()

	var out []simulation.ConditionMetrics
	for rows.Next() {
		var m simulation.ConditionMetrics
		if err := rows.Scan(&m.Condition, &m.Above, &m.Below, &m.Error,
			&m.AboveThreshold, &m.BelowThreshold, &m.ThresholdError, &m.ReachedComparison); err != nil {
			return nil, fmt.Errorf("loading run metrics: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// metricModes maps stored mode labels to their values in a metrics row.
func metricModes(m simulation.ConditionMetrics) map[string]float64 {
	return map[string]float64{
		"above":           m.Above,
		"below":           m.Below,
		"error":           m.Error,
		"above_threshold": m.AboveThreshold,
		"below_threshold": m.BelowThreshold,
		"threshold_error": m.ThresholdError,
	}
}

// RecordSweepSample stores one sweep sample's parameters and, when metrics
// are present, marks it completed and stores its per-condition errors.
func (s *Store) RecordSweepSample(ctx context.Context, sweep string, idx int, params []float64, metrics []simulation.ConditionMetrics) error {
	paramJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("recording sweep sample: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("recording sweep sample: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sweep_samples (sweep, idx, parameters, completed) VALUES (?, ?, ?, ?)`,
		sweep, idx, string(paramJSON), len(metrics) > 0)
	if err != nil {
		return fmt.Errorf("recording sweep sample: %w", err)
	}

	for _, m := range metrics {
		for mode, value := range metricModes(m) {
			_, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO sweep_metrics (sweep, idx, condition, mode, value) VALUES (?, ?, ?, ?, ?)`,
				sweep, idx, m.Condition, mode, value)
			if err != nil {
				return fmt.Errorf("recording sweep sample: condition %s: %w", m.Condition, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("recording sweep sample: %w", err)
	}
	return nil
}

// SweepValues returns the stored values of one (condition, mode) slice of a
// sweep, ordered by sample index.
func (s *Store) SweepValues(ctx context.Context, sweep, cond, mode string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM sweep_metrics WHERE sweep = ? AND condition = ? AND mode = ? ORDER BY idx`,
		sweep, cond, mode)
	if err != nil {
		return nil, fmt.Errorf("loading sweep values: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("loading sweep values: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SweepSample is a stored parameter sample.
type SweepSample struct {
	Index      int
	Parameters []float64
	Completed  bool
}

// SweepSamples returns all samples of a sweep ordered by index.
func (s *Store) SweepSamples(ctx context.Context, sweep string) ([]SweepSample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, parameters, completed FROM sweep_samples WHERE sweep = ? ORDER BY idx`, sweep)
	if err != nil {
		return nil, fmt.Errorf("loading sweep samples: %w", err)
	}
	defer rows.Close()

	var out []SweepSample
	for rows.Next() {
		var sample SweepSample
		var params string
		if err := rows.Scan(&sample.Index, &params, &sample.Completed); err != nil {
			return nil, fmt.Errorf("loading sweep samples: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &sample.Parameters); err != nil {
			return nil, fmt.Errorf("loading sweep samples: index %d: %w", sample.Index, err)
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}

// PercentComplete returns the fraction of sweep samples that completed.
func (s *Store) PercentComplete(ctx context.Context, sweep string) (float64, error) {
	var total, completed int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM sweep_samples WHERE sweep = ?`, sweep).
		Scan(&total, &completed)
	if err != nil {
		return 0, fmt.Errorf("computing sweep completion: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(completed) / float64(total), nil
}
