package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"weeksnap/internal/domain"
	"weeksnap/internal/store"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	successStyle = cellStyle.Foreground(lipgloss.Color("10"))
	failureStyle = cellStyle.Foreground(lipgloss.Color("9"))
	skippedStyle = cellStyle.Foreground(lipgloss.Color("11"))
)

func newHistoryCmd(g *globalOptions) *cobra.Command {
	var (
		limit  int
		export string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs or export them to Parquet",
		Long: `Lists the most recent runs from the run history ledger. With --export,
writes one row per source job to a Parquet file instead; --limit then
defaults to every run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Storage.HistoryPath == "" {
				return errors.New("run history is disabled (storage.history_path is empty)")
			}

			h, err := store.NewSQLiteStore(cfg.Storage.HistoryPath)
			if err != nil {
				return fmt.Errorf("opening run history: %w", err)
			}
			defer h.Close()

			n := limit
			if export != "" && !cmd.Flags().Changed("limit") {
				n = 0
			}
			runs, err := h.ListRuns(cmd.Context(), n)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if export != "" {
				rows, err := store.ExportJobs(export, runs)
				if err != nil {
					return fmt.Errorf("exporting runs: %w", err)
				}
				fmt.Fprintf(out, "Exported %d job rows from %d runs to %s\n", rows, len(runs), export)
				return nil
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs.")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs (0 for all)")
	cmd.Flags().StringVar(&export, "export", "", "Write job rows to this Parquet file")
	return cmd
}

func renderRuns(runs []domain.RunReport) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		took := r.FinishedAt.Sub(r.StartedAt).Round(100 * time.Millisecond)
		rows = append(rows, []string{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.WindowStart.Format(time.DateOnly) + ".." + r.WindowEnd.Format(time.DateOnly),
			string(r.Outcome),
			strconv.Itoa(len(r.Jobs)),
			strings.Join(r.Failed, ","),
			took.String(),
			shortID(r.RunID),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("STARTED", "WINDOW", "OUTCOME", "SOURCES", "FAILED", "TOOK", "RUN").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col != 2 || row < 0 || row >= len(rows) {
				return cellStyle
			}
			switch domain.Outcome(rows[row][2]) {
			case domain.OutcomeSucceeded:
				return successStyle
			case domain.OutcomeFailed:
				return failureStyle
			default:
				return skippedStyle
			}
		})
	return t.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
