package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/redwiki/redwiki/internal/config"
	"github.com/redwiki/redwiki/internal/database"
	"github.com/redwiki/redwiki/internal/export"
	"github.com/redwiki/redwiki/internal/log"
	"github.com/redwiki/redwiki/internal/model"
	"github.com/redwiki/redwiki/internal/pipeline"
	"github.com/redwiki/redwiki/internal/redmine"
	"github.com/redwiki/redwiki/internal/throttle"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full wiki of a Redmine server",
		Long: `Export crawls a Redmine server and writes every project's wiki to a
local directory tree:

  <output>/projects-metadata.json       project identifiers and names
  <output>/<project>/<page>.md          page content
  <output>/<project>/attachments/<f>    attachment files
  <output>/<project>/Index.md           per-project index
  <output>/Index.md                     top-level index

After the crawl, in-wiki links are rewritten to relative paths and index
pages are selected or generated, so the tree works as a static site.

Every run is a full re-export. Network failures skip the affected
project, page, or attachment and the run continues.

Examples:
  # Export a public wiki
  redwiki export --url https://redmine.example.com

  # Authenticated export to a specific directory
  redwiki export --url https://redmine.example.com --user bob --password s3cret -o ./wiki

  # Self-signed server, slower request rate
  redwiki export --url https://redmine.internal --insecure --rate-interval 2s`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	// Server connection flags
	cmd.Flags().StringP("url", "u", "", "Redmine base URL (required)")
	cmd.Flags().String("user", "", "Basic-auth username")
	cmd.Flags().String("password", "", "Basic-auth password")
	cmd.Flags().BoolP("insecure", "k", false, "Skip TLS certificate verification")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Per-request timeout")

	// Crawl politeness flags
	cmd.Flags().Duration("rate-interval", config.DefaultRateInterval,
		"Minimum spacing between outbound requests")
	cmd.Flags().Int("max-retries", config.DefaultMaxRetries,
		"Retry budget for transient failures (429/503, connection refused/reset)")
	cmd.Flags().Duration("retry-delay", config.DefaultRetryBaseDelay,
		"First retry delay; later delays double")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of in-flight crawl units (requests still serialize through one lane)")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir, "Export root directory")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .redwiki in current or home directory)")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	logger := log.NewSecureLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	cfg, ok, err := buildExportConfig(cmd, logger)
	if err != nil {
		return err
	}
	if !ok {
		// Missing configuration or server URL: logged guidance, exit 0.
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Handle interrupt signals for graceful shutdown.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Warn("received shutdown signal, cancelling...")
		cancel()
	}()

	return runExport(ctx, cmd, cfg, logger)
}

// buildExportConfig assembles the config from file and flags. The second
// return value is false when no export should run (nothing configured),
// which is not an error condition.
func buildExportConfig(cmd *cobra.Command, logger *slog.Logger) (*config.Config, bool, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, false, err
	}
	cfg.ConfigFilePath = configPath

	if found := config.FindConfigFile(configPath); found != "" {
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		cfg.Apply(file)
		logger.Debug("loaded config file", "path", found)
	} else if configPath != "" {
		logger.Warn("configuration file not found, nothing to do", "path", configPath)
		return nil, false, nil
	}

	// Flags override file values.
	if err := applyExportFlags(cmd, cfg); err != nil {
		return nil, false, err
	}

	if cfg.ServerURL == "" {
		logger.Warn("no Redmine URL configured, nothing to do: " +
			"pass --url or set 'url' in a .redwiki config file")
		return nil, false, nil
	}

	return cfg, true, nil
}

// applyExportFlags copies explicitly-set flag values into the config.
func applyExportFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	var err error
	if flags.Changed("url") {
		if cfg.ServerURL, err = flags.GetString("url"); err != nil {
			return err
		}
	}
	if flags.Changed("user") {
		if cfg.User, err = flags.GetString("user"); err != nil {
			return err
		}
	}
	if flags.Changed("password") {
		if cfg.Password, err = flags.GetString("password"); err != nil {
			return err
		}
	}
	if flags.Changed("insecure") {
		if cfg.Insecure, err = flags.GetBool("insecure"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("rate-interval") {
		if cfg.RateInterval, err = flags.GetDuration("rate-interval"); err != nil {
			return err
		}
	}
	if flags.Changed("max-retries") {
		if cfg.MaxRetries, err = flags.GetInt("max-retries"); err != nil {
			return err
		}
	}
	if flags.Changed("retry-delay") {
		if cfg.RetryBaseDelay, err = flags.GetDuration("retry-delay"); err != nil {
			return err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if flags.Changed("output") {
		if cfg.OutputDir, err = flags.GetString("output"); err != nil {
			return err
		}
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return err
	}
	cfg.SaveHistory = !noHistory
	cfg.DBDir = config.XDGDataDir()

	return nil
}

// runExport executes the full export pipeline: crawl, rewrite, index.
func runExport(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	logger.Debug("starting export",
		"url", cfg.ServerURL,
		"output", cfg.OutputDir,
		"rateInterval", cfg.RateInterval,
		"concurrency", cfg.Concurrency,
	)

	lane := throttle.New(cfg.RateInterval)
	defer lane.Close()

	client, err := redmine.NewClient(cfg.ServerURL, lane,
		redmine.WithBasicAuth(cfg.User, cfg.Password),
		redmine.WithInsecureTLS(cfg.Insecure),
		redmine.WithTimeout(cfg.Timeout),
		redmine.WithRetryPolicy(redmine.NewRetryPolicy(cfg.MaxRetries, cfg.RetryBaseDelay, logger)),
		redmine.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	writer, err := export.NewWriter(cfg.OutputDir, logger)
	if err != nil {
		return err
	}

	crawler := redmine.NewCrawler(client, logger)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewCrawlStep(crawler, writer, cfg.Concurrency, logger),
		pipeline.NewRewriteStep(writer.Root(), client.BaseURL(), logger),
		pipeline.NewIndexStep(writer.Root(), logger),
	)

	rec := &model.RunRecord{
		ServerURL: client.BaseURL(),
		OutputDir: cfg.OutputDir,
	}

	if err := p.Execute(ctx, rec); err != nil {
		return err
	}

	if cfg.SaveHistory {
		saveRunRecord(ctx, cfg, rec, logger)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"exported %d projects, %d pages, %d attachments to %s in %s (%d warnings)\n",
		rec.Projects, rec.Pages, rec.Attachments, cfg.OutputDir,
		rec.Duration.Round(time.Millisecond), rec.Warnings)

	return nil
}

// saveRunRecord appends the run to the history database. History is
// best-effort; a failure here never fails the export.
func saveRunRecord(ctx context.Context, cfg *config.Config, rec *model.RunRecord, logger *slog.Logger) {
	db, err := database.Open(cfg.DBDir)
	if err != nil {
		logger.Warn("failed to open history database", "error", err)
		return
	}
	defer db.Close()

	if _, err := db.SaveRun(ctx, rec); err != nil {
		logger.Warn("failed to record run history", "error", err)
	}
}
