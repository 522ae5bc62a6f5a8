// Package command runs external command-line tools with a bounded lifetime.
// Every outcome, including a binary that cannot be started, is reported in
// the returned Result so callers can carry on with their next command.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a command when neither the Command nor the Runner
// sets one.
const DefaultTimeout = 30 * time.Second

// waitDelay caps how long Wait blocks on inherited pipes after the process
// itself has been killed or has exited.
const waitDelay = 2 * time.Second

// Kind classifies why a command did not succeed.
type Kind string

const (
	KindTimeout     Kind = "timeout"
	KindNonZeroExit Kind = "nonzero_exit"
	KindSpawnError  Kind = "spawn_error"
	// KindCanceled means the caller's context ended before the command did.
	KindCanceled Kind = "canceled"
)

// Command is one invocation of an external tool. Args are passed to the
// binary directly, without a shell.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string // extra KEY=VALUE pairs appended to the current environment
	Timeout time.Duration
}

// String renders the command line for logs, quoting arguments that contain
// whitespace or quotes.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\n\"'") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Failure describes an unsuccessful command.
type Failure struct {
	Kind     Kind
	ExitCode int
	Stderr   string
	Err      error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindNonZeroExit:
		msg := fmt.Sprintf("exit status %d", f.ExitCode)
		if s := strings.TrimSpace(f.Stderr); s != "" {
			msg += ": " + s
		}
		return msg
	default:
		if f.Err != nil {
			return fmt.Sprintf("%s: %v", f.Kind, f.Err)
		}
		return string(f.Kind)
	}
}

func (f *Failure) Unwrap() error { return f.Err }

// Result is the outcome of Runner.Run. Failure is nil on success.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	Failure  *Failure
}

// OK reports whether the command exited zero within its timeout.
func (r Result) OK() bool { return r.Failure == nil }

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Combined returns stdout followed by stderr.
func (r Result) Combined() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Executor runs commands. *Runner is the production implementation.
type Executor interface {
	Run(ctx context.Context, c Command) Result
}

// Compile-time interface check.
var _ Executor = (*Runner)(nil)

// Runner executes commands as child processes.
type Runner struct {
	timeout time.Duration
	log     *slog.Logger
}

// NewRunner creates a Runner whose commands default to the given timeout.
// A non-positive timeout selects DefaultTimeout.
func NewRunner(timeout time.Duration, log *slog.Logger) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{timeout: timeout, log: log.With("component", "command")}
}

// Run starts c, waits for it up to its timeout, and reports what happened.
// A command that outlives its timeout is killed together with its process
// group. Stdout is returned verbatim.
func (r *Runner) Run(ctx context.Context, c Command) Result {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	setupProcessGroup(cmd)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	res.Failure = classify(err, res, execCtx, ctx, timeout)

	if res.Failure != nil {
		r.log.Warn("command failed",
			"cmd", c.String(),
			"kind", res.Failure.Kind,
			"exit", res.ExitCode,
			"elapsed", res.Duration.Round(time.Millisecond),
			"error", res.Failure.Error(),
		)
	} else {
		r.log.Debug("command completed",
			"cmd", c.String(),
			"bytes", len(res.Stdout),
			"elapsed", res.Duration.Round(time.Millisecond),
		)
	}
	return res
}

func classify(err error, res Result, execCtx, parent context.Context, timeout time.Duration) *Failure {
	if err == nil {
		return nil
	}

	// The process exited cleanly but a grandchild kept the pipes open.
	if errors.Is(err, exec.ErrWaitDelay) && res.ExitCode == 0 {
		return nil
	}

	if parent.Err() != nil {
		return &Failure{Kind: KindCanceled, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: parent.Err()}
	}
	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return &Failure{
			Kind:     KindTimeout,
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
			Err:      fmt.Errorf("killed after %s", timeout),
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Failure{Kind: KindNonZeroExit, ExitCode: exitErr.ExitCode(), Stderr: res.Stderr, Err: err}
	}

	return &Failure{Kind: KindSpawnError, ExitCode: -1, Err: err}
}
