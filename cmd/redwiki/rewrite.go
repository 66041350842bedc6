package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/redwiki/redwiki/internal/config"
	"github.com/redwiki/redwiki/internal/log"
	"github.com/redwiki/redwiki/internal/rewrite"
)

// NewRewriteCmd creates the rewrite command, which runs the link-rewrite
// pass over an existing export tree without re-crawling.
func NewRewriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite in-wiki links in an existing export tree",
		Long: `Rewrite converts server-absolute links inside an exported markdown tree
into relative paths, without contacting the server.

Three link shapes are handled: [[Page]] cross-references, absolute wiki
links, and absolute attachment links (with a cross-project search for
attachments referenced from other projects). Links to other hosts are
left untouched. The pass is safe to run repeatedly.

Examples:
  # Rewrite links in the default export directory
  redwiki rewrite --url https://redmine.example.com

  # Rewrite links in a specific tree
  redwiki rewrite --url https://redmine.example.com -o ./wiki`,
		Args: cobra.NoArgs,
		RunE: runRewriteCmd,
	}

	cmd.Flags().StringP("url", "u", "", "Redmine base URL the tree was exported from (required)")
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir, "Export root directory")

	return cmd
}

// runRewriteCmd executes the rewrite command.
func runRewriteCmd(cmd *cobra.Command, _ []string) error {
	logger := log.NewSecureLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	serverURL, err := cmd.Flags().GetString("url")
	if err != nil {
		return err
	}
	if serverURL == "" {
		logger.Warn("no Redmine URL configured, nothing to do: " +
			"pass --url so absolute links can be matched")
		return nil
	}

	root, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	stats, err := rewrite.NewRewriter(root, serverURL, logger).Run()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "rewrote %d of %d files (%d unresolved attachment links)\n",
		stats.FilesChanged, stats.FilesScanned, stats.UnresolvedAttachments)
	return nil
}
