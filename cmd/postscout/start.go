package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/postscout/internal/ai"
	"github.com/amishk599/postscout/internal/browser"
	"github.com/amishk599/postscout/internal/config"
	"github.com/amishk599/postscout/internal/scheduler"
)

// Overrides for linkedin.* and interval, applied only when set.
var (
	flagEmail       string
	flagPassword    string
	flagSearchText  string
	flagMaxScroll   int
	flagIntervalHrs float64
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scraping daemon",
	Long:  "Logs in to LinkedIn, then scrapes, classifies and stores posts every interval; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	addScrapeFlags(startCmd)
	rootCmd.AddCommand(startCmd)
}

func addScrapeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagEmail, "email", "", "LinkedIn email (overrides linkedin.email)")
	cmd.Flags().StringVar(&flagPassword, "password", "", "LinkedIn password (overrides linkedin.password and the keyring)")
	cmd.Flags().StringVar(&flagSearchText, "search-text", "", "post search query (overrides linkedin.search_text)")
	cmd.Flags().IntVar(&flagMaxScroll, "max-scroll-attempts", 20, "scrolls per iteration")
	cmd.Flags().Float64Var(&flagIntervalHrs, "interval", 0.5, "hours between iterations")
}

// applyScrapeFlags copies explicitly set flags over the config values.
func applyScrapeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("email") {
		cfg.LinkedIn.Email = flagEmail
	}
	if flags.Changed("password") {
		cfg.LinkedIn.Password = flagPassword
	}
	if flags.Changed("search-text") {
		cfg.LinkedIn.SearchText = flagSearchText
	}
	if flags.Changed("max-scroll-attempts") {
		if flagMaxScroll < 0 {
			return errors.New("--max-scroll-attempts must not be negative")
		}
		cfg.LinkedIn.MaxScrollAttempts = flagMaxScroll
	}
	if flags.Changed("interval") {
		if flagIntervalHrs <= 0 {
			return errors.New("--interval must be positive")
		}
		cfg.Interval = time.Duration(flagIntervalHrs * float64(time.Hour))
	}
	if err := cfg.RequireLinkedIn(); err != nil {
		return err
	}
	return cfg.ResolvePassword()
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, logger := loadConfig()
	if err := applyScrapeFlags(cmd, cfg); err != nil {
		logger.Error("invalid linkedin settings", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"search_text", cfg.LinkedIn.SearchText,
		"interval", cfg.Interval.String(),
		"max_scroll_attempts", cfg.LinkedIn.MaxScrollAttempts,
		"output", cfg.Output.Type,
		"classify_names", cfg.Classify.Names,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := prepareModel(ctx, cfg, logger); err != nil {
		if ctx.Err() != nil {
			logger.Info("interrupted during model setup")
			return nil
		}
		logger.Error("model setup failed", "error", err)
		return err
	}

	postSink, err := buildSink(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer postSink.Close()

	n, err := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
	if err != nil {
		logger.Error("failed to set up notifier", "error", err)
		return err
	}

	session := browser.NewSession(cfg.LinkedIn, cfg.LinkedIn.Password, logger)
	if err := session.Start(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("interrupted during browser setup")
			return nil
		}
		logger.Error("browser setup failed", "error", err)
		return err
	}
	defer session.Close()

	pipe, err := buildPipeline(cfg, session, postSink, n, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		return err
	}

	sched := scheduler.NewScheduler(pipe, cfg.Interval, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}

// prepareModel makes sure the Ollama server is up and the model is pulled.
// It is a no-op for the OpenAI-compatible backend or when skip_setup is set.
func prepareModel(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Ollama.Provider != "ollama" || cfg.Ollama.SkipSetup {
		return nil
	}
	// No client timeout: pulling a model can take minutes. ctx bounds it.
	manager := ai.NewModelManager(cfg.Ollama.BaseURL, cfg.Ollama.Model, &http.Client{}, logger)
	_, err := manager.EnsureReady(ctx)
	return err
}

