// Command scraper runs one AP News search session and writes the spreadsheet
// and image archive to the output directory.
//
// Settings are read from the environment (and a .env file when present);
// command line flags override them.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"news-scraper/internal/app"
	"news-scraper/internal/config"
	"news-scraper/internal/observability/logging"
	pkgconfig "news-scraper/internal/pkg/config"
	"news-scraper/internal/usecase/scrape"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const appName = "scraper"

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f cliFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Search AP News and export matching articles to a spreadsheet",
		Long: `Searches apnews.com for a phrase, reads the results newest first and keeps
every article published inside the requested month window. The articles are
written to an .xlsx spreadsheet and their images to a zip archive.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, &f)
		},
	}
	f.register(cmd)
	return cmd
}

func run(cmd *cobra.Command, f *cliFlags) error {
	logger := logging.NewWithFormat(f.logFormat, os.Stderr)
	slog.SetDefault(logger)

	cfg, err := config.LoadScraperConfig(logger, pkgconfig.NewConfigMetrics(appName))
	if err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		return err
	}
	if err := f.apply(cmd, cfg); err != nil {
		logger.Error("invalid flags", slog.Any("error", err))
		return err
	}

	runner, err := app.NewRunner(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize scraper", slog.Any("error", err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("scrape started",
		slog.String("phrase", cfg.SearchPhrase),
		slog.Int("delta", cfg.Delta),
		slog.String("backend", cfg.BrowserBackend),
		slog.String("output_dir", cfg.OutputDir))

	report, err := runner.Run(ctx)
	if err != nil {
		logFailure(logger, err)
		return err
	}

	printSummary(cmd.OutOrStdout(), report)
	return nil
}

func logFailure(logger *slog.Logger, err error) {
	var exhausted *scrape.SessionExhaustedError
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("scrape interrupted")
	case errors.As(err, &exhausted):
		logger.Error("scrape failed after all attempts",
			slog.Int("attempts", exhausted.Attempts),
			slog.Any("error", exhausted.Err))
	default:
		logger.Error("scrape failed", slog.Any("error", err))
	}
	fmt.Fprintln(os.Stderr, "scrape failed:", err)
}
