// Package domain defines the core types shared across weeksnap: collection
// jobs, their states, and the report produced by one run.
package domain

import "time"

// JobState is the lifecycle state of a single source's collection job.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// Outcome is the overall result of a run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	// OutcomeSkipped means the output directory already existed and the user
	// chose to keep it. No collector ran.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeCancelled means the user aborted during directory preparation.
	OutcomeCancelled Outcome = "cancelled"
)

// ExitCode maps an outcome to the process exit status.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeSucceeded, OutcomeSkipped:
		return 0
	default:
		return 1
	}
}

// Decision is how the output directory was prepared for a run.
type Decision string

const (
	DecisionCreated      Decision = "created"
	DecisionReplaced     Decision = "replaced"
	DecisionKeepExisting Decision = "keep_existing"
	DecisionCancelled    Decision = "cancelled"
)

// SourceJob tracks one source's collection within a run.
type SourceJob struct {
	Name       string    `json:"name"`
	State      JobState  `json:"state"`
	Error      string    `json:"error,omitempty"`
	Artifact   string    `json:"artifact,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the job ran, or zero if it never finished.
func (j SourceJob) Duration() time.Duration {
	if j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// RunReport is the terminal output of one run besides the artifact files.
type RunReport struct {
	RunID       string      `json:"run_id"`
	WindowStart time.Time   `json:"window_start"`
	WindowEnd   time.Time   `json:"window_end"`
	OutputDir   string      `json:"output_dir"`
	Decision    Decision    `json:"decision"`
	Jobs        []SourceJob `json:"jobs"`
	Outcome     Outcome     `json:"outcome"`
	Failed      []string    `json:"failed,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at"`
}

// Job returns the job for the named source.
func (r *RunReport) Job(name string) (SourceJob, bool) {
	for _, j := range r.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return SourceJob{}, false
}
