package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/perly6185-lab/imgprobe/packages/history"
)

var (
	historyDBPathFlag string
	historyLimitFlag  int
	historyStatsFlag  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded check runs",
	Long: `List runs recorded with 'imgprobe run --history-db', or aggregate
per-check latency percentiles across them.

Examples:
  imgprobe history --db imgprobe.db
  imgprobe history --db imgprobe.db --limit 50
  imgprobe history --db imgprobe.db --stats`,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().StringVar(&historyDBPathFlag, "db", "imgprobe.db", "Path to the history database")
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "Number of runs to list")
	historyCmd.Flags().BoolVar(&historyStatsFlag, "stats", false, "Show per-check latency percentiles")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	store, err := history.Open(historyDBPathFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	if historyStatsFlag {
		return printStats(cmd, store)
	}
	return printRuns(cmd, store)
}

func printRuns(cmd *cobra.Command, store *history.Store) error {
	runs, err := store.ListRuns(historyLimitFlag)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, run := range runs {
		status := green("ok")
		if run.Failed > 0 {
			status = red("fail")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "#%-4d %s  %-4s  %d passed, %d failed  %dms  %s\n",
			run.ID,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			status,
			run.Passed,
			run.Failed,
			run.DurationMs,
			run.BaseURL,
		)
	}
	return nil
}

func printStats(cmd *cobra.Command, store *history.Store) error {
	stats, err := store.Stats()
	if err != nil {
		return err
	}

	if len(stats) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded results.")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%-28s %8s %10s %10s %10s\n", "check", "count", "p50", "p95", "p99")
	for _, s := range stats {
		fmt.Fprintf(cmd.OutOrStdout(), "%-28s %8d %10s %10s %10s\n",
			s.Name, s.Count, s.P50, s.P95, s.P99)
	}
	return nil
}
