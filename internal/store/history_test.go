package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"weeksnap/internal/domain"
)

func sampleRun(id string, started time.Time) *domain.RunReport {
	return &domain.RunReport{
		RunID:       id,
		WindowStart: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC),
		OutputDir:   "/snapshots/20240602-20240608",
		Decision:    domain.DecisionCreated,
		Outcome:     domain.OutcomeFailed,
		Failed:      []string{"slack"},
		StartedAt:   started,
		FinishedAt:  started.Add(3 * time.Second),
		Jobs: []domain.SourceJob{
			{
				Name:       "github",
				State:      domain.JobSucceeded,
				Artifact:   "/snapshots/20240602-20240608/raw_github.json",
				StartedAt:  started,
				FinishedAt: started.Add(1500 * time.Millisecond),
			},
			{
				Name:       "slack",
				State:      domain.JobFailed,
				Error:      "preflight: not authenticated",
				StartedAt:  started,
				FinishedAt: started.Add(200 * time.Millisecond),
			},
		},
	}
}

func TestSQLiteStoreRecordAndList(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	base := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	older := sampleRun("run-1", base)
	newer := sampleRun("run-2", base.Add(time.Hour))
	newer.Outcome = domain.OutcomeSucceeded
	newer.Failed = nil
	newer.Jobs = newer.Jobs[:1]

	for _, r := range []*domain.RunReport{older, newer} {
		if err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun(%s): %v", r.RunID, err)
		}
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns returned %d runs, want 2", len(runs))
	}
	if runs[0].RunID != "run-2" || runs[1].RunID != "run-1" {
		t.Errorf("order = %s,%s, want newest first", runs[0].RunID, runs[1].RunID)
	}

	got := runs[1]
	if !got.WindowStart.Equal(older.WindowStart) || !got.WindowEnd.Equal(older.WindowEnd) {
		t.Errorf("window = %s..%s", got.WindowStart, got.WindowEnd)
	}
	if !got.StartedAt.Equal(older.StartedAt) || !got.FinishedAt.Equal(older.FinishedAt) {
		t.Errorf("run times = %s..%s", got.StartedAt, got.FinishedAt)
	}
	if got.Outcome != domain.OutcomeFailed || got.Decision != domain.DecisionCreated {
		t.Errorf("outcome/decision = %s/%s", got.Outcome, got.Decision)
	}
	if len(got.Jobs) != 2 || got.Jobs[0].Name != "github" || got.Jobs[1].Name != "slack" {
		t.Fatalf("jobs = %+v, want github then slack", got.Jobs)
	}
	if got.Jobs[1].Error != "preflight: not authenticated" {
		t.Errorf("job error = %q", got.Jobs[1].Error)
	}
	if got.Jobs[0].Duration() != 1500*time.Millisecond {
		t.Errorf("job duration = %v", got.Jobs[0].Duration())
	}
	if len(got.Failed) != 1 || got.Failed[0] != "slack" {
		t.Errorf("Failed = %v, want [slack]", got.Failed)
	}

	limited, err := s.ListRuns(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].RunID != "run-2" {
		t.Errorf("ListRuns(1) = %+v", limited)
	}
}

func TestSQLiteStoreRecordReplaces(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	r := sampleRun("run-1", time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC))
	if err := s.RecordRun(ctx, r); err != nil {
		t.Fatal(err)
	}
	r.Jobs = r.Jobs[:1]
	r.Outcome = domain.OutcomeSucceeded
	if err := s.RecordRun(ctx, r); err != nil {
		t.Fatal(err)
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || len(runs[0].Jobs) != 1 || runs[0].Outcome != domain.OutcomeSucceeded {
		t.Errorf("after re-record: %+v", runs)
	}
}

func TestExportJobs(t *testing.T) {
	base := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	runs := []domain.RunReport{*sampleRun("run-2", base.Add(time.Hour)), *sampleRun("run-1", base)}
	path := filepath.Join(t.TempDir(), "export", "jobs.parquet")

	n, err := ExportJobs(path, runs)
	if err != nil {
		t.Fatalf("ExportJobs: %v", err)
	}
	if n != 4 {
		t.Errorf("ExportJobs wrote %d rows, want 4", n)
	}

	got, err := ReadJobs(path)
	if err != nil {
		t.Fatalf("ReadJobs: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("ReadJobs returned %d rows, want 4", len(got))
	}
	first := got[0]
	if first.RunID != "run-2" || first.Source != "github" || first.State != "succeeded" {
		t.Errorf("first row = %+v", first)
	}
	if first.WindowStart != "2024-06-02" || first.WindowEnd != "2024-06-08" {
		t.Errorf("window = %s..%s", first.WindowStart, first.WindowEnd)
	}
	if first.DurationMS != 1500 {
		t.Errorf("DurationMS = %d, want 1500", first.DurationMS)
	}
	if first.StartedAt != base.Add(time.Hour).UnixMilli() {
		t.Errorf("StartedAt = %d", first.StartedAt)
	}
	if got[1].Error != "preflight: not authenticated" || got[1].RunOutcome != "failed" {
		t.Errorf("second row = %+v", got[1])
	}
}
