// Package store persists what a run produces: the per-run artifact
// directory, the SQLite run ledger and its Parquet export.
package store

import (
	"context"

	"weeksnap/internal/domain"
)

// ArtifactStore owns the run directory lifecycle.
type ArtifactStore interface {
	// Path returns the directory a run named name writes into.
	Path(name string) string

	// Prepare makes the run directory ready, resolving a conflict with an
	// existing directory by policy or by asking the user.
	Prepare(name string) (domain.Decision, error)

	// WriteArtifact stores v as JSON in dir/name and returns the path.
	WriteArtifact(dir, name string, v any) (string, error)
}

// HistoryStore records finished runs.
type HistoryStore interface {
	// RecordRun inserts or replaces a run and its jobs.
	RecordRun(ctx context.Context, r *domain.RunReport) error

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]domain.RunReport, error)
}
