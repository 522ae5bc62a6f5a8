package domain

import (
	"testing"
	"time"
)

func TestJobStateTerminal(t *testing.T) {
	cases := map[JobState]bool{
		JobPending:   false,
		JobRunning:   false,
		JobSucceeded: true,
		JobFailed:    true,
	}
	for state, want := range cases {
		if got := state.Terminal(); got != want {
			t.Errorf("%q.Terminal() = %v, want %v", state, got, want)
		}
	}
}

func TestOutcomeExitCode(t *testing.T) {
	cases := map[Outcome]int{
		OutcomeSucceeded: 0,
		OutcomeSkipped:   0,
		OutcomeFailed:    1,
		OutcomeCancelled: 1,
	}
	for o, want := range cases {
		if got := o.ExitCode(); got != want {
			t.Errorf("%q.ExitCode() = %d, want %d", o, got, want)
		}
	}
}

func TestSourceJobDuration(t *testing.T) {
	job := SourceJob{}
	if job.Duration() != 0 {
		t.Error("expected zero duration for unfinished job")
	}

	start := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	job.StartedAt = start
	job.FinishedAt = start.Add(1500 * time.Millisecond)
	if got := job.Duration(); got != 1500*time.Millisecond {
		t.Errorf("Duration() = %v, want 1.5s", got)
	}
}

func TestRunReportJob(t *testing.T) {
	r := &RunReport{Jobs: []SourceJob{
		{Name: "github", State: JobSucceeded},
		{Name: "slack", State: JobFailed, Error: "boom"},
	}}

	j, ok := r.Job("slack")
	if !ok {
		t.Fatal("expected slack job")
	}
	if j.Error != "boom" {
		t.Errorf("slack.Error = %q, want %q", j.Error, "boom")
	}
	if _, ok := r.Job("gmail"); ok {
		t.Error("gmail should not be present")
	}
}
