package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/redwiki/redwiki/internal/config"
)

//go:embed templates/redwiki.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new redwiki configuration file",
		Long: `Init creates a new .redwiki configuration file in the current directory.

The generated file documents every available option with its default
value. Edit it with your server URL and credentials, then run
'redwiki export'.

Examples:
  # Create .redwiki in the current directory
  redwiki init

  # Create the config file at a specific path
  redwiki init -o myconfig.yaml

  # Force overwrite an existing file
  redwiki init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if _, err := os.Stat(outputPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
	}

	data, err := configTemplate.ReadFile("templates/redwiki.yaml")
	if err != nil {
		return fmt.Errorf("failed to read embedded template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", outputPath)
	return nil
}
