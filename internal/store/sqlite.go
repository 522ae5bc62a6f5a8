package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"weeksnap/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ HistoryStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	window_start TEXT NOT NULL,
	window_end   TEXT NOT NULL,
	output_dir   TEXT NOT NULL,
	decision     TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	started_at   INTEGER NOT NULL,
	finished_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
CREATE TABLE IF NOT EXISTS jobs (
	run_id      TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	name        TEXT NOT NULL,
	state       TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	artifact    TEXT NOT NULL DEFAULT '',
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	PRIMARY KEY (run_id, name)
);`

const dayLayout = "2006-01-02"

// SQLiteStore is the run ledger. Times are stored as Unix milliseconds, zero
// meaning unset.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the ledger at dbPath, creating the parent
// directory and the schema when missing. ":memory:" opens a private
// in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" a single database and serialises writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordRun inserts the run, replacing any earlier row with the same ID
// together with its jobs.
func (s *SQLiteStore) RecordRun(ctx context.Context, r *domain.RunReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE run_id = ?`, r.RunID); err != nil {
		return fmt.Errorf("clearing jobs for %s: %w", r.RunID, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(run_id, window_start, window_end, output_dir, decision, outcome, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		dayString(r.WindowStart), dayString(r.WindowEnd),
		r.OutputDir, string(r.Decision), string(r.Outcome),
		toMillis(r.StartedAt), toMillis(r.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", r.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO jobs (run_id, seq, name, state, error, artifact, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, j := range r.Jobs {
		_, err := stmt.ExecContext(ctx,
			r.RunID, i, j.Name, string(j.State), j.Error, j.Artifact,
			toMillis(j.StartedAt), toMillis(j.FinishedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting job %s/%s: %w", r.RunID, j.Name, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]domain.RunReport, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, window_start, window_end, output_dir, decision, outcome, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}

	var runs []domain.RunReport
	for rows.Next() {
		var (
			r                     domain.RunReport
			start, end            string
			decision, outcome     string
			startedAt, finishedAt int64
		)
		if err := rows.Scan(&r.RunID, &start, &end, &r.OutputDir, &decision, &outcome, &startedAt, &finishedAt); err != nil {
			rows.Close()
			return nil, err
		}
		r.WindowStart = parseDay(start)
		r.WindowEnd = parseDay(end)
		r.Decision = domain.Decision(decision)
		r.Outcome = domain.Outcome(outcome)
		r.StartedAt = fromMillis(startedAt)
		r.FinishedAt = fromMillis(finishedAt)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		if err := s.loadJobs(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *SQLiteStore) loadJobs(ctx context.Context, r *domain.RunReport) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, state, error, artifact, started_at, finished_at
		FROM jobs WHERE run_id = ? ORDER BY seq`, r.RunID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			j                     domain.SourceJob
			state                 string
			startedAt, finishedAt int64
		)
		if err := rows.Scan(&j.Name, &state, &j.Error, &j.Artifact, &startedAt, &finishedAt); err != nil {
			return err
		}
		j.State = domain.JobState(state)
		j.StartedAt = fromMillis(startedAt)
		j.FinishedAt = fromMillis(finishedAt)
		r.Jobs = append(r.Jobs, j)
		if j.State == domain.JobFailed {
			r.Failed = append(r.Failed, j.Name)
		}
	}
	return rows.Err()
}

// ---------------------------------------------------------------------------
// Column helpers
// ---------------------------------------------------------------------------

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func dayString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dayLayout)
}

func parseDay(s string) time.Time {
	t, err := time.Parse(dayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}
