package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aleister1102/pagewatch/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(flags *appFlags) *cobra.Command {
	var (
		limit int
		runID string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs, or the reports of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer a.close()

			db, err := history.NewDB(a.config().HistoryConfig.SQLiteDBPath, a.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				run, err := db.GetRun(cmd.Context(), runID)
				if err != nil {
					return err
				}
				reports, err := db.GetRunReports(cmd.Context(), runID)
				if err != nil {
					return err
				}
				return printRunReports(out, run, reports)
			}

			runs, err := db.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printRuns(out, runs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "show the per-resource reports of this run")
	return cmd
}

func printRuns(w io.Writer, runs []history.RunEntry) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTARTED\tDURATION\tSTATUS\tTOTAL\tCHANGED\tUNREACHABLE\tNEW")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			r.Status,
			r.Total, r.Changed, r.Unreachable, r.FirstObservation)
	}
	return tw.Flush()
}

func printRunReports(w io.Writer, run *history.RunEntry, reports []history.ReportEntry) error {
	fmt.Fprintf(w, "Run %s (%s), started %s\n", run.RunID, run.Status, run.StartedAt.Local().Format(time.DateTime))
	if run.StoreError.Valid {
		fmt.Fprintf(w, "Store error: %s\n", run.StoreError.String)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tFINGERPRINT\tDETAIL")
	for _, r := range reports {
		detail := r.Error.String
		if r.Degraded {
			detail = "degraded " + detail
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ResourceID, r.Status, r.Current.String, detail)
	}
	return tw.Flush()
}
