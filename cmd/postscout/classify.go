package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/postscout/internal/ai"
	"github.com/amishk599/postscout/internal/filter"
)

var classifyName string

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Classify one post's text",
	Long:  "Runs the heuristic filter and one hiring-post inference on the given text, or on stdin when no text is given. No browser is started.",
	RunE:  runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyName, "name", "", "also run the names classification on this profile name")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, logger := loadConfig()

	text, err := classifyInput(cmd.InOrStdin(), args)
	if err != nil {
		logger.Error("no input", "error", err)
		os.Exit(1)
	}

	opts, err := loadPrompts(cfg)
	if err != nil {
		logger.Error("failed to load prompts", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	heuristic := filter.NewJobPostFilter(cfg.Filters.MinIndicators).IsJobPost(text)
	fmt.Fprintf(out, "heuristic:   job_post=%t indicators=%d\n", heuristic, filter.Indicators(text))

	classifier := ai.NewClassifier(buildProvider(cfg, logger), logger)
	label, err := classifier.Inference(ctx, text, opts.HiringPrompt, ai.HiringPostSchema)
	if err != nil {
		logger.Error("hiring classification failed", "error", err)
		return err
	}
	fmt.Fprintf(out, "hiring_post: %d\n", label)

	if classifyName != "" {
		label, err := classifier.Inference(ctx, classifyName, opts.NamesPrompt, ai.NamesClassificationSchema)
		if err != nil {
			logger.Error("names classification failed", "error", err)
			return err
		}
		fmt.Fprintf(out, "names_classification: %d\n", label)
	}
	return nil
}

// classifyInput joins the positional args, or reads all of r when there are none.
func classifyInput(r io.Reader, args []string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		return "", errors.New("pass the post text as an argument or on stdin")
	}
	return text, nil
}
