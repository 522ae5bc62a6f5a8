// Package engine runs every registered collector for one window and turns
// their results into a RunReport.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"weeksnap/internal/domain"
	"weeksnap/internal/gather"
	"weeksnap/internal/store"
)

// Request names the window to collect and the run directory to use. An
// empty OutputDir means the window's folder name under the output root.
type Request struct {
	Window    gather.Window
	OutputDir string
}

// Engine orchestrates a run by delegating directory preparation and artifact
// persistence to an ArtifactStore and collection to the collectors.
type Engine struct {
	collectors []gather.Collector
	output     store.ArtifactStore
	history    store.HistoryStore
	log        *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewEngine creates a new Engine wired with the given dependencies. history
// may be nil, in which case runs are not recorded.
func NewEngine(
	collectors []gather.Collector,
	output store.ArtifactStore,
	history store.HistoryStore,
	log *slog.Logger,
) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		collectors: collectors,
		output:     output,
		history:    history,
		log:        log.With("component", "engine"),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// Run prepares the run directory, runs every collector concurrently and
// returns the report. Only failures to prepare the directory are returned as
// errors; source failures are reported in the RunReport.
func (e *Engine) Run(ctx context.Context, req Request) (*domain.RunReport, error) {
	name := req.OutputDir
	if name == "" {
		name = req.Window.FolderName()
	}
	dir := e.output.Path(name)

	report := &domain.RunReport{
		RunID:       e.newID(),
		WindowStart: req.Window.Start,
		WindowEnd:   req.Window.End,
		OutputDir:   dir,
		StartedAt:   e.now(),
	}

	decision, err := e.output.Prepare(name)
	if err != nil {
		return nil, fmt.Errorf("preparing output directory: %w", err)
	}
	report.Decision = decision

	switch decision {
	case domain.DecisionKeepExisting:
		report.Outcome = domain.OutcomeSkipped
	case domain.DecisionCancelled:
		report.Outcome = domain.OutcomeCancelled
	default:
		e.log.Info("collecting", "window", req.Window.String(), "dir", dir, "sources", len(e.collectors))
		e.collect(ctx, req.Window, dir, report)
		report.Outcome, report.Failed = outcome(report.Jobs)
	}

	report.FinishedAt = e.now()
	e.record(ctx, report)
	return report, nil
}

// collect runs one worker per collector and waits for all of them. Workers
// never return an error to the group, so one source cannot stop another.
func (e *Engine) collect(ctx context.Context, w gather.Window, dir string, report *domain.RunReport) {
	report.Jobs = make([]domain.SourceJob, len(e.collectors))
	for i, c := range e.collectors {
		report.Jobs[i] = domain.SourceJob{Name: c.Name(), State: domain.JobPending}
	}
	if len(e.collectors) == 0 {
		return
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(len(e.collectors))

	for i, c := range e.collectors {
		g.Go(func() error {
			mu.Lock()
			job := &report.Jobs[i]
			job.State = domain.JobRunning
			job.StartedAt = e.now()
			mu.Unlock()

			log := e.log.With("source", c.Name())
			log.Info("source started")

			doc, err := runCollector(ctx, c, w, dir)

			mu.Lock()
			job.FinishedAt = e.now()
			if err != nil {
				job.State = domain.JobFailed
				job.Error = err.Error()
			} else {
				job.State = domain.JobSucceeded
				if doc != nil {
					job.Artifact = doc.Path
				}
			}
			snapshot := *job
			mu.Unlock()

			if err != nil {
				log.Error("source failed", "error", err, "duration", snapshot.Duration())
			} else {
				log.Info("source finished", "artifact", snapshot.Artifact, "duration", snapshot.Duration())
			}
			return nil
		})
	}
	_ = g.Wait()
	settle(report.Jobs, e.now())
}

// settle fails every job whose worker exited without reaching a terminal
// state, as happens when a collector calls runtime.Goexit.
func settle(jobs []domain.SourceJob, now time.Time) {
	for i := range jobs {
		if jobs[i].State.Terminal() {
			continue
		}
		jobs[i].State = domain.JobFailed
		jobs[i].Error = "source did not finish"
		if jobs[i].FinishedAt.IsZero() {
			jobs[i].FinishedAt = now
		}
	}
}

// runCollector calls c.Collect, converting a panic into an error.
func runCollector(ctx context.Context, c gather.Collector, w gather.Window, dir string) (doc *gather.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("collector panicked: %v", r)
		}
	}()
	return c.Collect(ctx, w, dir)
}

// outcome is succeeded iff every job succeeded. failed lists the failed
// sources in registration order.
func outcome(jobs []domain.SourceJob) (domain.Outcome, []string) {
	var failed []string
	for _, j := range jobs {
		if j.State != domain.JobSucceeded {
			failed = append(failed, j.Name)
		}
	}
	if len(failed) > 0 {
		return domain.OutcomeFailed, failed
	}
	return domain.OutcomeSucceeded, nil
}

func (e *Engine) record(ctx context.Context, report *domain.RunReport) {
	if e.history == nil {
		return
	}
	// Recording must still happen after Ctrl-C cancelled the run.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := e.history.RecordRun(ctx, report); err != nil {
		e.log.Warn("recording run history failed", "run_id", report.RunID, "error", err)
	}
}
