package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"weeksnap/internal/command"
	"weeksnap/internal/util"
)

// ---------------------------------------------------------------------------
// Compile-time interface check
// ---------------------------------------------------------------------------

var _ Collector = (*QueryCollector)(nil)

// ---------------------------------------------------------------------------
// Definition
// ---------------------------------------------------------------------------

// Query is one labelled sub-query of a source.
type Query struct {
	Label string
	// Build returns the command to run for the window.
	Build func(w Window) command.Command
	// Transform, when set, rewrites a parsed JSON value before it is stored.
	Transform func(v any, w Window) any
}

// Preflight is a command whose output must mention Expect before any
// sub-query runs. An empty Expect only requires the command to succeed.
type Preflight struct {
	Command command.Command
	Expect  string
}

// Requirement is a configured value a source's queries are built from. An
// empty Value fails the source before any command runs.
type Requirement struct {
	Setting string
	Value   string
}

// Definition describes a source: its name, required settings, optional
// preflight and ordered sub-queries, and the pause between consecutive
// calls.
type Definition struct {
	Name      string
	Requires  []Requirement
	Preflight *Preflight
	Queries   []Query
	Delay     time.Duration
}

// ---------------------------------------------------------------------------
// QueryCollector
// ---------------------------------------------------------------------------

// QueryCollector runs a Definition's sub-queries in order through an
// Executor, folds the results into a Document and persists it.
type QueryCollector struct {
	def     Definition
	exec    command.Executor
	writer  ArtifactWriter
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewQueryCollector creates a QueryCollector for def.
func NewQueryCollector(def Definition, exec command.Executor, writer ArtifactWriter, log *slog.Logger) *QueryCollector {
	if log == nil {
		log = slog.Default()
	}
	return &QueryCollector{
		def:     def,
		exec:    exec,
		writer:  writer,
		limiter: util.NewIntervalLimiter(def.Delay),
		log:     log.With("source", def.Name),
	}
}

// Name returns the source identifier.
func (c *QueryCollector) Name() string { return c.def.Name }

// Labels returns the sub-query labels in execution order.
func (c *QueryCollector) Labels() []string {
	out := make([]string, len(c.def.Queries))
	for i, q := range c.def.Queries {
		out[i] = q.Label
	}
	return out
}

// Collect runs the preflight check, then every sub-query, and writes the
// merged document to dir. Sub-query failures are recorded in the document;
// only a failed preflight or a failed write is returned as an error.
func (c *QueryCollector) Collect(ctx context.Context, w Window, dir string) (*Document, error) {
	for _, r := range c.def.Requires {
		if strings.TrimSpace(r.Value) == "" {
			return nil, fmt.Errorf("%w: %s is not configured", ErrPreflight, r.Setting)
		}
	}
	if c.def.Preflight != nil {
		if err := c.checkPreflight(ctx); err != nil {
			return nil, err
		}
	}

	c.log.Debug("collecting", "queries", strings.Join(c.Labels(), ","))

	doc := NewDocument(c.def.Name)
	for _, q := range c.def.Queries {
		if err := c.limiter.Wait(ctx); err != nil {
			doc.Set(q.Label, ErrorEntry(string(command.KindCanceled), err.Error()))
			continue
		}

		res := c.exec.Run(ctx, q.Build(w))
		entry := EntryFor(res)
		if entry.Kind == EntryParsed && q.Transform != nil {
			entry.Value = q.Transform(entry.Value, w)
		}
		doc.Set(q.Label, entry)

		c.log.Debug("sub-query done", "label", q.Label, "kind", entry.Kind)
	}

	path, err := c.writer.WriteArtifact(dir, ArtifactName(c.def.Name), doc)
	if err != nil {
		return nil, fmt.Errorf("writing %s artifact: %w", c.def.Name, err)
	}
	doc.Path = path

	failed := doc.Failed()
	if len(failed) > 0 {
		c.log.Warn("collected with failed sub-queries",
			"artifact", path,
			"queries", doc.Len(),
			"failed", strings.Join(failed, ","),
		)
	} else {
		c.log.Info("collected", "artifact", path, "queries", doc.Len())
	}
	return doc, nil
}

func (c *QueryCollector) checkPreflight(ctx context.Context) error {
	pf := c.def.Preflight
	res := c.exec.Run(ctx, pf.Command)
	if !res.OK() {
		return fmt.Errorf("%w: %s: %v", ErrPreflight, pf.Command.String(), res.Err())
	}
	if pf.Expect != "" && !strings.Contains(res.Combined(), pf.Expect) {
		return fmt.Errorf("%w: %s output does not mention %q", ErrPreflight, pf.Command.String(), pf.Expect)
	}
	return nil
}
