package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/postscout/internal/browser"
	"github.com/amishk599/postscout/internal/sink"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Scrape and classify once, print posts, exit",
	Long:  "One-shot iteration: logs in, collects and classifies one batch of posts, prints them and exits. Nothing is written to the store.",
	RunE:  runCheck,
}

func init() {
	addScrapeFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger := loadConfig()
	if err := applyScrapeFlags(cmd, cfg); err != nil {
		logger.Error("invalid linkedin settings", "error", err)
		os.Exit(1)
	}

	logger.Info("check mode: no posts will be stored")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := prepareModel(ctx, cfg, logger); err != nil {
		logger.Error("model setup failed", "error", err)
		return err
	}

	n, err := setupNotifier(cfg, &http.Client{Timeout: 30 * time.Second}, logger)
	if err != nil {
		logger.Error("failed to set up notifier", "error", err)
		return err
	}

	session := browser.NewSession(cfg.LinkedIn, cfg.LinkedIn.Password, logger)
	if err := session.Start(ctx); err != nil {
		logger.Error("browser setup failed", "error", err)
		return err
	}
	defer session.Close()

	pipe, err := buildPipeline(cfg, session, sink.NewNopSink(), n, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		return err
	}

	res, err := pipe.RunIteration(ctx)
	printPosts(cmd.OutOrStdout(), res.Posts)
	if err != nil {
		logger.Error("iteration failed", "error", err)
		return err
	}

	logger.Info("check complete", "collected", res.Collected, "hiring", res.Hiring)
	return nil
}
