package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"weeksnap/internal/config"
)

const defaultConfigPath = "config/weeksnap.yaml"

// nowFunc is the clock used to anchor the default window.
var nowFunc = time.Now

// exitCodeError ends the process with a status but prints nothing; the run
// summary has already been shown.
type exitCodeError int

func (e exitCodeError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	collect := &collectOptions{}

	root := &cobra.Command{
		Use:   "weeksnap",
		Short: "Collect a weekly activity snapshot from external tools",
		Long: `weeksnap gathers one week of activity from GitHub, Slack, Gmail, Drive,
Calendar, Linear and LaunchDarkly by driving their CLI tools, and saves one
raw_<source>.json document per source under a YYYYMMDD-YYYYMMDD directory.

The week defaults to the previous Sunday-Saturday range. Running weeksnap
without a subcommand is the same as "weeksnap collect".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, g, collect)
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default $WEEKSNAP_CONFIG or "+defaultConfigPath+")")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	addCollectFlags(root, collect)

	root.AddCommand(newCollectCmd(g, collect))
	root.AddCommand(newWindowCmd())
	root.AddCommand(newHistoryCmd(g))
	return root
}

// loadConfig resolves the config path from the flag, then WEEKSNAP_CONFIG,
// then the default location. Only the default may be missing.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("WEEKSNAP_CONFIG")
	}
	if path != "" {
		return config.Load(path)
	}
	return config.LoadIfExists(defaultConfigPath)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var code exitCodeError
		if errors.As(err, &code) {
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
