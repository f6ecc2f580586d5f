package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/postscout/internal/ai"
	"github.com/amishk599/postscout/internal/config"
	"github.com/amishk599/postscout/internal/model"
	"github.com/amishk599/postscout/internal/review"
	"github.com/amishk599/postscout/internal/sink"
)

var reviewClassify bool

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse stored posts interactively (TUI)",
	Long:  "Loads the configured output store and shows all posts next to the hiring posts. With --classify, unlabelled posts can be labelled from the detail view.",
	RunE:  runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewClassify, "classify", false, "enable on-demand classification with the configured model")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, logger := loadConfig()

	posts, err := review.RunLoader(cfg.Output.Path, func(ctx context.Context) ([]model.Post, error) {
		return loadStored(ctx, cfg)
	})
	if err != nil {
		logger.Error("failed to load posts", "path", cfg.Output.Path, "error", err)
		os.Exit(1)
	}
	if len(posts) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No posts in %s yet.\n", cfg.Output.Path)
		return nil
	}

	var classify review.ClassifyFunc
	if reviewClassify {
		classify, err = reviewClassifier(cfg)
		if err != nil {
			logger.Error("failed to load prompts", "error", err)
			os.Exit(1)
		}
	}

	if err := review.Run(posts, classify); err != nil {
		fmt.Printf("TUI error: %v\n", err)
		return err
	}
	return nil
}

func loadStored(ctx context.Context, cfg *config.Config) ([]model.Post, error) {
	// Any log output while the TUI owns the terminal corrupts the display.
	store, err := sink.Open(cfg.Output.Type, cfg.Output.Path, discardLogger())
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(ctx)
}

func reviewClassifier(cfg *config.Config) (review.ClassifyFunc, error) {
	opts, err := loadPrompts(cfg)
	if err != nil {
		return nil, err
	}
	silent := discardLogger()
	classifier := ai.NewClassifier(buildProvider(cfg, silent), silent)
	return func(ctx context.Context, p model.Post) (model.Post, error) {
		label, err := classifier.Inference(ctx, p.Content, opts.HiringPrompt, ai.HiringPostSchema)
		if err != nil {
			return p, err
		}
		p.HiringPost = &label
		return p, nil
	}, nil
}
