package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/redwiki/redwiki/internal/config"
	"github.com/redwiki/redwiki/internal/index"
	"github.com/redwiki/redwiki/internal/log"
)

// NewIndexCmd creates the index command, which rebuilds index pages over
// an existing export tree without re-crawling.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build index pages for an existing export tree",
		Long: `Index selects or generates one Index.md per project directory and a
top-level Index.md linking all projects, ordered by display name.

Project display names come from the projects-metadata.json sidecar the
export wrote; projects missing from it fall back to their directory
name.

Examples:
  # Build indexes in the default export directory
  redwiki index

  # Build indexes in a specific tree
  redwiki index -o ./wiki`,
		Args: cobra.NoArgs,
		RunE: runIndexCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutputDir, "Export root directory")

	return cmd
}

// runIndexCmd executes the index command.
func runIndexCmd(cmd *cobra.Command, _ []string) error {
	logger := log.NewSecureLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	root, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	if err := index.NewBuilder(root, logger).Run(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "index pages built under %s\n", root)
	return nil
}
