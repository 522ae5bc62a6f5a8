package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weeksnap/internal/gather"
)

const verboseDayLayout = "2006-01-02 Monday"

func newWindowCmd() *cobra.Command {
	var (
		date    string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Print the previous week's folder name",
		Long: `Prints the YYYYMMDD-YYYYMMDD folder name of the Sunday-Saturday week
before the current one, or before the week containing --date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			anchor, label := nowFunc(), "Today"
			if date != "" {
				d, err := gather.ParseDate(date)
				if err != nil {
					return err
				}
				anchor, label = d, "Date"
			}
			w := gather.PreviousWeek(anchor)

			out := cmd.OutOrStdout()
			if !verbose {
				fmt.Fprintln(out, w.FolderName())
				return nil
			}
			fmt.Fprintf(out, "%s: %s\n", label, anchor.Format(verboseDayLayout))
			fmt.Fprintf(out, "Previous week: %s to %s\n", w.Start.Format(verboseDayLayout), w.End.Format(verboseDayLayout))
			fmt.Fprintf(out, "Folder: %s\n", w.FolderName())
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Anchor date (YYYY-MM-DD), default today")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print the anchor and the date range")
	return cmd
}
