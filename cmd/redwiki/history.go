package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/redwiki/redwiki/internal/config"
	"github.com/redwiki/redwiki/internal/database"
)

// NewHistoryCmd creates the history command.
// It lists recent export runs recorded in the run-history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent export runs",
		Long: `History lists export runs recorded in the run-history database,
newest first. Each export records its server, output directory, counts,
and duration unless --no-history was given.

Examples:
  # Show the last 20 runs
  redwiki history

  # Show the last 5 runs
  redwiki history --limit 5`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	db, err := database.Open(config.XDGDataDir())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no export runs recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSERVER\tPROJECTS\tPAGES\tATTACHMENTS\tWARNINGS\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.ServerURL,
			r.Projects,
			r.Pages,
			r.Attachments,
			r.Warnings,
			r.Duration.Round(time.Second),
		)
	}
	return w.Flush()
}
