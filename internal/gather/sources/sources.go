// Package sources holds the definitions of every service weeksnap collects
// from: which tool to call, with which arguments, for a given window.
package sources

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"weeksnap/internal/command"
	"weeksnap/internal/config"
	"weeksnap/internal/gather"
)

// Names lists every known source in registration order.
var Names = []string{"github", "slack", "gmail", "drive", "calendar", "linear", "launchdarkly"}

var builders = map[string]func(cfg *config.Config) gather.Definition{
	"github":       GitHub,
	"slack":        Slack,
	"gmail":        Gmail,
	"drive":        Drive,
	"calendar":     Calendar,
	"linear":       Linear,
	"launchdarkly": LaunchDarkly,
}

// Selection narrows the set of sources for one run. Only, when non-empty,
// lists the sources to run; Skip removes sources from the result.
type Selection struct {
	Only []string
	Skip []string
}

// Build returns one collector per enabled, selected source, in registration
// order.
func Build(cfg *config.Config, exec command.Executor, w gather.ArtifactWriter, log *slog.Logger, sel Selection) ([]gather.Collector, error) {
	for _, n := range append(slices.Clone(sel.Only), sel.Skip...) {
		if _, ok := builders[n]; !ok {
			return nil, fmt.Errorf("unknown source %q (known: %v)", n, Names)
		}
	}

	var out []gather.Collector
	for _, name := range Names {
		if len(sel.Only) > 0 && !slices.Contains(sel.Only, name) {
			continue
		}
		if slices.Contains(sel.Skip, name) {
			continue
		}
		// An explicit --sources entry runs even when disabled in config.
		if len(sel.Only) == 0 && !sourceConfig(cfg, name).IsEnabled() {
			continue
		}
		out = append(out, gather.NewQueryCollector(builders[name](cfg), exec, w, log))
	}
	return out, nil
}

func sourceConfig(cfg *config.Config, name string) config.SourceConfig {
	s := cfg.Sources
	switch name {
	case "github":
		return s.GitHub
	case "slack":
		return s.Slack.SourceConfig
	case "gmail":
		return s.Gmail
	case "drive":
		return s.Drive
	case "calendar":
		return s.Calendar
	case "linear":
		return s.Linear
	case "launchdarkly":
		return s.LaunchDarkly
	}
	return config.SourceConfig{}
}

// toolbox builds commands for the Python explorer scripts that live under
// the tools directory.
type toolbox struct {
	python  string
	dir     string
	timeout time.Duration
}

func newToolbox(cfg *config.Config, sc config.SourceConfig) toolbox {
	return toolbox{
		python:  cfg.Collect.Python,
		dir:     cfg.Collect.ToolsDir,
		timeout: sc.Timeout(cfg.Collect.Timeout()),
	}
}

func (t toolbox) script(name string, args ...string) command.Command {
	return command.Command{
		Name:    t.python,
		Args:    append([]string{"tools/" + name}, args...),
		Dir:     t.dir,
		Timeout: t.timeout,
	}
}

// fixed wraps a command that does not depend on the window.
func fixed(label string, c command.Command) gather.Query {
	return gather.Query{Label: label, Build: func(gather.Window) command.Command { return c }}
}
