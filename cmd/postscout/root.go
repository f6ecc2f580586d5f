package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/postscout/internal/ai"
	"github.com/amishk599/postscout/internal/config"
	"github.com/amishk599/postscout/internal/extract"
	"github.com/amishk599/postscout/internal/filter"
	"github.com/amishk599/postscout/internal/model"
	"github.com/amishk599/postscout/internal/notifier"
	"github.com/amishk599/postscout/internal/pipeline"
	"github.com/amishk599/postscout/internal/ratelimit"
	"github.com/amishk599/postscout/internal/retry"
	"github.com/amishk599/postscout/internal/sink"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "postscout",
	Short: "LinkedIn hiring-post radar",
	Long:  "postscout scrapes the latest LinkedIn posts for a search query and labels hiring posts with a local Ollama model.",
	// Default to `start` so that `postscout` with no args runs the daemon.
	RunE:          runStart,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: POSTSCOUT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	addScrapeFlags(rootCmd)
}

// loadConfig resolves and parses the config, exiting on failure. The returned
// logger honours log.level, log.format and --debug.
func loadConfig() (*config.Config, *slog.Logger) {
	logger := setupLogger(debug, config.LogConfig{})

	cfg, path, err := config.Resolve(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = setupLogger(debug, cfg.Log)
	if path == "" {
		logger.Debug("no config file found, using defaults")
	} else {
		logger.Debug("config loaded", "path", path)
	}
	return cfg, logger
}

func setupLogger(dbg bool, lc config.LogConfig) *slog.Logger {
	return newLogger(os.Stdout, dbg, lc)
}

func newLogger(w io.Writer, dbg bool, lc config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dbg {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupNotifier returns nil when notifications are disabled.
func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (model.Notifier, error) {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger), nil
	case "telegram":
		logger.Info("using telegram notifier")
		return notifier.NewTelegramNotifier(cfg.Notification.TelegramToken, cfg.Notification.TelegramChatID, logger)
	case "none":
		return nil, nil
	default:
		return notifier.NewLogNotifier(logger), nil
	}
}

// buildProvider returns the configured chat backend wrapped with retries and,
// when requests_per_minute is set, a request limiter.
func buildProvider(cfg *config.Config, logger *slog.Logger) ai.Provider {
	httpClient := &http.Client{Timeout: cfg.Ollama.Timeout}

	var p ai.Provider
	switch cfg.Ollama.Provider {
	case "openai":
		p = ai.NewOpenAIProvider(cfg.Ollama.BaseURL, cfg.Ollama.APIKey, cfg.Ollama.Model, httpClient)
	default:
		p = ai.NewOllamaProvider(cfg.Ollama.BaseURL, cfg.Ollama.Model, httpClient)
	}
	logger.Info("model backend configured", "provider", cfg.Ollama.Provider, "model", cfg.Ollama.Model, "base_url", cfg.Ollama.BaseURL)

	p = retry.NewProvider(p, cfg.Ollama.MaxRetries, cfg.Ollama.RetryBaseDelay, logger)
	if rpm := cfg.Ollama.RequestsPerMinute; rpm > 0 {
		p = ratelimit.NewProvider(p, ratelimit.NewLimiter(rpm, 1))
		logger.Info("model request limiter enabled", "requests_per_minute", rpm)
	}
	return p
}

func buildSink(cfg *config.Config, logger *slog.Logger) (model.PostSink, error) {
	return sink.Open(cfg.Output.Type, cfg.Output.Path, logger)
}

// buildFilter composes the heuristic and location filters. It returns nil
// when neither is enabled, which keeps every post.
func buildFilter(cfg *config.Config) model.PostFilter {
	var filters []model.PostFilter
	if cfg.Filters.Heuristic {
		filters = append(filters, filter.NewJobPostFilter(cfg.Filters.MinIndicators))
	}
	if len(cfg.Filters.Locations) > 0 {
		filters = append(filters, filter.NewLocationFilter(cfg.Filters.Locations))
	}
	if len(filters) == 0 {
		return nil
	}
	return filter.All(filters...)
}

func loadPrompts(cfg *config.Config) (pipeline.Options, error) {
	hiring, err := ai.LoadPrompt(cfg.Classify.HiringPromptPath, ai.HiringPostPrompt())
	if err != nil {
		return pipeline.Options{}, err
	}
	names, err := ai.LoadPrompt(cfg.Classify.NamesPromptPath, ai.NamesClassificationPrompt())
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		HiringPrompt:  hiring,
		NamesPrompt:   names,
		ClassifyNames: cfg.Classify.Names,
	}, nil
}

func buildPipeline(cfg *config.Config, source extract.Source, postSink model.PostSink, n model.Notifier, logger *slog.Logger) (*pipeline.Pipeline, error) {
	opts, err := loadPrompts(cfg)
	if err != nil {
		return nil, err
	}
	classifier := ai.NewClassifier(buildProvider(cfg, logger), logger)
	cooldown := ratelimit.NewCooldown(cfg.Classify.Cooldown, nil)
	return pipeline.New(source, buildFilter(cfg), classifier, cooldown, postSink, n, opts, logger), nil
}

func printPosts(w io.Writer, posts []model.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "no posts")
		return
	}
	for i, p := range posts {
		name := p.ProfileName
		if name == "" {
			name = "Unknown author"
		}
		fmt.Fprintf(w, "%3d. [hiring=%s] %s\n     %s\n     %s\n",
			i+1, labelString(p.HiringPost), name, p.URL, oneLine(p.Content, 160))
	}
}

func labelString(c *model.Classification) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *c)
}

func oneLine(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
