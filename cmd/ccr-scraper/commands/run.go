package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ccr-registry-scraper/internal/app"
	"ccr-registry-scraper/internal/browser"
	"ccr-registry-scraper/internal/checkpoint"
	"ccr-registry-scraper/internal/config"
	"ccr-registry-scraper/internal/normalize"
	"ccr-registry-scraper/internal/observability"
	"ccr-registry-scraper/internal/scraper"
	"ccr-registry-scraper/internal/storage"
	"ccr-registry-scraper/internal/storage/mssql"
)

var runConfigPath string

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "configs/config.yaml", "Path to the YAML config file.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--config <path/to/config.yaml>]",
	Short: "Searches the registry, pages through every result and saves the records.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(runConfigPath)
	},
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogPath, cfg.Observability.LogLevel)
	defer func() { _ = logger.Close() }()

	logger.Info("Config loaded",
		"source", cfg.Source,
		"url", cfg.URL,
		"max_pages", cfg.PageBudget(),
		"checkpoint_interval", cfg.Pagination.CheckpointInterval,
		"output_dir", cfg.Output.Dir,
		"format", cfg.Output.Format,
	)

	selectors, err := cfg.Selectors()
	if err != nil {
		return fmt.Errorf("failed to load selectors: %w", err)
	}

	normalizer := normalize.NewNormalizer(cfg)
	scr := scraper.NewScraper(selectors, normalizer.CellText)

	var sink storage.Repository
	if cfg.Storage.Enabled {
		repo, err := mssql.NewRepository(cfg.Storage.DSN, cfg.GetCommandTimeout(), logger)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			if closeErr := repo.Close(); closeErr != nil {
				logger.Warn("Failed to close database", "error", closeErr)
			}
		}()
		sink = repo
	}

	writer := checkpoint.NewWriter(cfg, logger, sink)

	ctx, cancel := app.GracefulShutdown(logger)
	defer cancel()

	session, err := browser.Launch(cfg, selectors, logger)
	if err != nil {
		return err
	}
	defer func() {
		if d := cfg.GetRodCloseDelay(); d > 0 && ctx.Err() == nil {
			logger.Info("Keeping browser open", "delay", d)
			time.Sleep(d)
		}
		session.Close()
	}()

	state := app.NewRunState()
	logger.Info("Run started", "run_id", state.ID)

	orchestrator := app.NewOrchestrator(cfg, logger, session, scr, writer)
	stats, err := orchestrator.Execute(ctx, state)

	if stats != nil {
		printSummary(stats)
	}
	return err
}

func printSummary(stats *app.PaginationStats) {
	fmt.Printf("Pages visited: %d\n", stats.PagesVisited)
	fmt.Printf("Records:       %d\n", stats.TotalRecords)
	fmt.Printf("Empty pages:   %d\n", stats.EmptyPages)
	fmt.Printf("Stopped:       %s\n", stats.StoppedReason)
	for _, f := range stats.Checkpoints {
		fmt.Printf("Checkpoint:    %s\n", f)
	}
	if stats.Final != nil {
		fmt.Printf("Saved %s: %s (%d rows)\n", stats.Final.Kind, stats.Final.File, stats.Final.Rows)
	}
}
