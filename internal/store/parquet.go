package store

import (
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"weeksnap/internal/domain"
)

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// JobRecord is the Parquet schema for one source job of one run, flattened
// with its run's window and outcome.
type JobRecord struct {
	RunID       string `parquet:"run_id"`
	WindowStart string `parquet:"window_start"`
	WindowEnd   string `parquet:"window_end"`
	RunOutcome  string `parquet:"run_outcome"`
	Source      string `parquet:"source"`
	State       string `parquet:"state"`
	Error       string `parquet:"error"`
	Artifact    string `parquet:"artifact"`
	StartedAt   int64  `parquet:"started_at,timestamp(millisecond)"` // Unix ms
	DurationMS  int64  `parquet:"duration_ms"`
}

// JobRecords flattens runs into one record per job, preserving run order and
// job order within each run.
func JobRecords(runs []domain.RunReport) []JobRecord {
	var out []JobRecord
	for _, r := range runs {
		for _, j := range r.Jobs {
			out = append(out, JobRecord{
				RunID:       r.RunID,
				WindowStart: dayString(r.WindowStart),
				WindowEnd:   dayString(r.WindowEnd),
				RunOutcome:  string(r.Outcome),
				Source:      j.Name,
				State:       string(j.State),
				Error:       j.Error,
				Artifact:    j.Artifact,
				StartedAt:   toMillis(j.StartedAt),
				DurationMS:  j.Duration().Milliseconds(),
			})
		}
	}
	return out
}

// ExportJobs writes every job of runs to a Parquet file at path and returns
// the number of rows written.
func ExportJobs(path string, runs []domain.RunReport) (int, error) {
	records := JobRecords(runs)
	if err := writeParquetFile(path, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ReadJobs reads a file written by ExportJobs.
func ReadJobs(path string) ([]JobRecord, error) {
	return readParquetFile[JobRecord](path)
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
