package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"weeksnap/internal/command"
	"weeksnap/internal/config"
	"weeksnap/internal/engine"
	"weeksnap/internal/gather"
	"weeksnap/internal/gather/sources"
	"weeksnap/internal/store"
	"weeksnap/internal/util"
)

type collectOptions struct {
	start  string
	end    string
	date   string
	output string
	force  bool

	sources       []string
	skip          []string
	slackChannels []string
	slackDelay    time.Duration
	timeout       time.Duration
}

func newCollectCmd(g *globalOptions, o *collectOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect one week of activity into a snapshot directory",
		Long: `Runs every enabled source concurrently and writes raw_<source>.json
files into the run directory. Sources that fail are reported at the end;
what the other sources collected is kept.

Examples:
  weeksnap collect
  weeksnap collect --date 2024-06-12
  weeksnap collect --start 2024-06-02 --end 2024-06-08 --force
  weeksnap collect --sources github,linear --slack-channels eng,release`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, g, o)
		},
	}
	addCollectFlags(cmd, o)
	return cmd
}

func addCollectFlags(cmd *cobra.Command, o *collectOptions) {
	f := cmd.Flags()
	f.StringVar(&o.start, "start", "", "Window start date (YYYY-MM-DD), requires --end")
	f.StringVar(&o.end, "end", "", "Window end date (YYYY-MM-DD), requires --start")
	f.StringVar(&o.date, "date", "", "Collect the week before the week containing this date (YYYY-MM-DD)")
	f.StringVar(&o.output, "output", "", "Run directory (default: YYYYMMDD-YYYYMMDD under the output root)")
	f.BoolVar(&o.force, "force", false, "Replace an existing run directory without asking")
	f.StringSliceVar(&o.sources, "sources", nil, "Only run these sources (comma-separated)")
	f.StringSliceVar(&o.skip, "skip", nil, "Do not run these sources (comma-separated)")
	f.StringSliceVar(&o.slackChannels, "slack-channels", nil, "Add one Slack query per channel")
	f.DurationVar(&o.slackDelay, "slack-delay", 0, "Pause between Slack queries")
	f.DurationVar(&o.timeout, "timeout", 0, "Per-command timeout (default from config, 30s)")
}

// apply folds explicitly set flags into cfg.
func (o *collectOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	if o.force {
		cfg.Output.Force = true
	}
	if len(o.slackChannels) > 0 {
		cfg.Sources.Slack.Channels = o.slackChannels
	}
	if cmd.Flags().Changed("slack-delay") {
		if o.slackDelay < 0 {
			return errors.New("--slack-delay must not be negative")
		}
		cfg.Sources.Slack.DelayMS = int(o.slackDelay / time.Millisecond)
	}
	if cmd.Flags().Changed("timeout") {
		if o.timeout < time.Second {
			return fmt.Errorf("--timeout must be at least 1s, got %s", o.timeout)
		}
		cfg.Collect.TimeoutSeconds = int(o.timeout / time.Second)
	}
	return nil
}

func runCollect(cmd *cobra.Command, g *globalOptions, o *collectOptions) error {
	cfg, err := loadConfig(g.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := o.apply(cmd, cfg); err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}

	log := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	util.SetDefault(log)

	w, err := gather.ResolveWindow(gather.WindowOptions{
		Start: o.start,
		End:   o.end,
		Date:  o.date,
		Now:   nowFunc,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdout := cmd.OutOrStdout()
	out := store.NewOutputStore(cfg.Output.Root, cfg.Output.Force,
		&store.LinePrompter{In: cmd.InOrStdin(), Out: stdout}, log)
	runner := command.NewRunner(cfg.Collect.Timeout(), log)

	collectors, err := sources.Build(cfg, runner, out, log, sources.Selection{Only: o.sources, Skip: o.skip})
	if err != nil {
		return err
	}
	if len(collectors) == 0 {
		return errors.New("no sources selected")
	}

	var history store.HistoryStore
	if cfg.Storage.HistoryPath != "" {
		h, err := store.NewSQLiteStore(cfg.Storage.HistoryPath)
		if err != nil {
			log.Warn("run history disabled", "path", cfg.Storage.HistoryPath, "error", err)
		} else {
			defer h.Close()
			history = h
		}
	}

	fmt.Fprintf(stdout, "Collecting data for %s to %s\n", w.StartDate(), w.EndDate())

	report, err := engine.NewEngine(collectors, out, history, log).Run(ctx, engine.Request{
		Window:    w,
		OutputDir: o.output,
	})
	if err != nil {
		return err
	}

	fmt.Fprint(stdout, engine.RenderReport(report))
	if code := report.Outcome.ExitCode(); code != 0 {
		return exitCodeError(code)
	}
	return nil
}
