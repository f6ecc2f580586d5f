package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable consulted for the config path
// when no --config flag is given.
const EnvConfigPath = "POSTSCOUT_CONFIG"

// DefaultConfigPath is tried last; if it does not exist, built-in defaults apply.
const DefaultConfigPath = "config.yaml"

const (
	defaultOllamaURL    = "http://localhost:11434"
	defaultOpenAIURL    = "https://api.openai.com/v1"
	defaultModel        = "deepseek-r1:1.5b"
	defaultCSVPath      = "linkedin_jobs.csv"
	defaultSQLitePath   = "postscout.db"
	defaultInterval     = 30 * time.Minute
	defaultMaxScroll    = 20
	defaultMinIndicator = 2
)

// Config is the root configuration for postscout.
type Config struct {
	LinkedIn     LinkedInConfig
	Ollama       OllamaConfig
	Classify     ClassifyConfig
	Filters      FilterConfig
	Output       OutputConfig
	Notification NotificationConfig
	Interval     time.Duration // pause between iterations
	Log          LogConfig
}

// LinkedInConfig controls the browser session.
type LinkedInConfig struct {
	Email             string
	Password          string // usually empty in the file; see ResolvePassword
	SearchText        string
	MaxScrollAttempts int
	Headless          bool
	CookiesPath       string // session cookies reused across runs, empty to disable
	MinSleep          time.Duration
	MaxSleep          time.Duration
	WaitTimeout       time.Duration // per-selector wait
}

// OllamaConfig controls the model backend.
type OllamaConfig struct {
	Provider          string // "ollama" or "openai"
	BaseURL           string
	Model             string
	APIKey            string
	Timeout           time.Duration // per-request timeout
	MaxRetries        int
	RetryBaseDelay    time.Duration
	RequestsPerMinute int // 0 disables the limiter
	SkipSetup         bool
}

// ClassifyConfig controls the classification passes.
type ClassifyConfig struct {
	Cooldown         time.Duration // pause before each pass
	Names            bool
	HiringPromptPath string
	NamesPromptPath  string
}

// FilterConfig controls the heuristic pre-filter.
type FilterConfig struct {
	Heuristic     bool
	MinIndicators int
	Locations     []string
}

// OutputConfig selects the persistence sink.
type OutputConfig struct {
	Type string `yaml:"type"` // "csv" or "sqlite"
	Path string `yaml:"path"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type           string `yaml:"type"`        // "log", "slack", "telegram" or "none"
	WebhookURL     string `yaml:"webhook_url"` // required if type is "slack"
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	LinkedIn     rawLinkedInConfig  `yaml:"linkedin"`
	Ollama       rawOllamaConfig    `yaml:"ollama"`
	Classify     rawClassifyConfig  `yaml:"classify"`
	Filters      rawFilterConfig    `yaml:"filters"`
	Output       OutputConfig       `yaml:"output"`
	Notification NotificationConfig `yaml:"notification"`
	Interval     string             `yaml:"interval"`
	Log          LogConfig          `yaml:"log"`
}

type rawLinkedInConfig struct {
	Email             string `yaml:"email"`
	Password          string `yaml:"password"`
	SearchText        string `yaml:"search_text"`
	MaxScrollAttempts int    `yaml:"max_scroll_attempts"`
	Headless          *bool  `yaml:"headless"`
	CookiesPath       string `yaml:"cookies_path"`
	MinSleep          string `yaml:"min_sleep"`
	MaxSleep          string `yaml:"max_sleep"`
	WaitTimeout       string `yaml:"wait_timeout"`
}

type rawOllamaConfig struct {
	Provider          string `yaml:"provider"`
	BaseURL           string `yaml:"base_url"`
	Model             string `yaml:"model"`
	APIKey            string `yaml:"api_key"`
	Timeout           string `yaml:"timeout"`
	MaxRetries        *int   `yaml:"max_retries"`
	RetryBaseDelay    string `yaml:"retry_base_delay"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	SkipSetup         bool   `yaml:"skip_setup"`
}

type rawClassifyConfig struct {
	Cooldown         string `yaml:"cooldown"`
	Names            bool   `yaml:"names"`
	HiringPromptPath string `yaml:"hiring_prompt_path"`
	NamesPromptPath  string `yaml:"names_prompt_path"`
}

type rawFilterConfig struct {
	Heuristic     *bool    `yaml:"heuristic"`
	MinIndicators int      `yaml:"min_indicators"`
	Locations     []string `yaml:"locations"`
}

// Resolve picks the config path (flag, then POSTSCOUT_CONFIG, then
// ./config.yaml), loads a .env file if present and returns the parsed config.
// A missing default config file yields built-in defaults; an explicitly named
// file must exist.
func Resolve(flagPath string) (*Config, string, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("load .env: %w", err)
	}

	path, explicit := flagPath, flagPath != ""
	if !explicit {
		if env := os.Getenv(EnvConfigPath); env != "" {
			path, explicit = env, true
		}
	}
	if !explicit {
		path = DefaultConfigPath
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			cfg, err := parse(nil)
			return cfg, "", err
		}
	}

	cfg, err := Load(path)
	return cfg, path, err
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := parse(nil)
	if err != nil {
		panic(fmt.Sprintf("default config invalid: %v", err))
	}
	return cfg
}

func parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	d := durations{}
	cfg := &Config{
		LinkedIn: LinkedInConfig{
			Email:             raw.LinkedIn.Email,
			Password:          raw.LinkedIn.Password,
			SearchText:        raw.LinkedIn.SearchText,
			MaxScrollAttempts: orInt(raw.LinkedIn.MaxScrollAttempts, defaultMaxScroll),
			Headless:          orBool(raw.LinkedIn.Headless, true),
			CookiesPath:       raw.LinkedIn.CookiesPath,
			MinSleep:          d.parse("linkedin.min_sleep", raw.LinkedIn.MinSleep, time.Second),
			MaxSleep:          d.parse("linkedin.max_sleep", raw.LinkedIn.MaxSleep, 4*time.Second),
			WaitTimeout:       d.parse("linkedin.wait_timeout", raw.LinkedIn.WaitTimeout, 10*time.Second),
		},
		Ollama: OllamaConfig{
			Provider:          orString(strings.ToLower(raw.Ollama.Provider), "ollama"),
			BaseURL:           strings.TrimRight(raw.Ollama.BaseURL, "/"),
			Model:             orString(raw.Ollama.Model, defaultModel),
			APIKey:            raw.Ollama.APIKey,
			Timeout:           d.parse("ollama.timeout", raw.Ollama.Timeout, 120*time.Second),
			MaxRetries:        2,
			RetryBaseDelay:    d.parse("ollama.retry_base_delay", raw.Ollama.RetryBaseDelay, 5*time.Second),
			RequestsPerMinute: raw.Ollama.RequestsPerMinute,
			SkipSetup:         raw.Ollama.SkipSetup,
		},
		Classify: ClassifyConfig{
			Cooldown:         d.parse("classify.cooldown", raw.Classify.Cooldown, 10*time.Second),
			Names:            raw.Classify.Names,
			HiringPromptPath: raw.Classify.HiringPromptPath,
			NamesPromptPath:  raw.Classify.NamesPromptPath,
		},
		Filters: FilterConfig{
			Heuristic:     orBool(raw.Filters.Heuristic, true),
			MinIndicators: orInt(raw.Filters.MinIndicators, defaultMinIndicator),
			Locations:     raw.Filters.Locations,
		},
		Output: OutputConfig{
			Type: orString(strings.ToLower(raw.Output.Type), "csv"),
			Path: raw.Output.Path,
		},
		Notification: raw.Notification,
		Interval:     d.parse("interval", raw.Interval, defaultInterval),
		Log: LogConfig{
			Level:  orString(strings.ToLower(raw.Log.Level), "info"),
			Format: orString(strings.ToLower(raw.Log.Format), "text"),
		},
	}
	if d.err != nil {
		return nil, d.err
	}

	if raw.Ollama.MaxRetries != nil {
		cfg.Ollama.MaxRetries = *raw.Ollama.MaxRetries
	}
	if cfg.Ollama.BaseURL == "" {
		cfg.Ollama.BaseURL = defaultOllamaURL
		if cfg.Ollama.Provider == "openai" {
			cfg.Ollama.BaseURL = defaultOpenAIURL
		}
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = defaultCSVPath
		if cfg.Output.Type == "sqlite" {
			cfg.Output.Path = defaultSQLitePath
		}
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// durations parses duration fields, keeping the first error.
type durations struct{ err error }

func (d *durations) parse(field, s string, def time.Duration) time.Duration {
	if s == "" || d.err != nil {
		return def
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		d.err = fmt.Errorf("parse %s %q: %w", field, s, err)
		return def
	}
	return v
}

func orString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orInt(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}

func orBool(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func validate(cfg *Config) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", cfg.Interval)
	}
	if cfg.LinkedIn.MaxScrollAttempts < 0 {
		return fmt.Errorf("linkedin.max_scroll_attempts must not be negative, got %d", cfg.LinkedIn.MaxScrollAttempts)
	}
	if cfg.LinkedIn.MinSleep < 0 || cfg.LinkedIn.MaxSleep < cfg.LinkedIn.MinSleep {
		return fmt.Errorf("linkedin sleep range [%v, %v] is invalid", cfg.LinkedIn.MinSleep, cfg.LinkedIn.MaxSleep)
	}
	if cfg.Filters.MinIndicators < 1 {
		return fmt.Errorf("filters.min_indicators must be at least 1, got %d", cfg.Filters.MinIndicators)
	}
	if cfg.Classify.Cooldown < 0 {
		return fmt.Errorf("classify.cooldown must not be negative, got %v", cfg.Classify.Cooldown)
	}

	switch cfg.Ollama.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("ollama.provider must be \"ollama\" or \"openai\", got %q", cfg.Ollama.Provider)
	}
	if cfg.Ollama.MaxRetries < 0 {
		return fmt.Errorf("ollama.max_retries must not be negative, got %d", cfg.Ollama.MaxRetries)
	}
	if cfg.Ollama.Timeout <= 0 {
		return fmt.Errorf("ollama.timeout must be positive, got %v", cfg.Ollama.Timeout)
	}

	switch cfg.Output.Type {
	case "csv", "sqlite":
	default:
		return fmt.Errorf("output.type must be \"csv\" or \"sqlite\", got %q", cfg.Output.Type)
	}

	switch cfg.Notification.Type {
	case "log", "none":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	case "telegram":
		if cfg.Notification.TelegramToken == "" || cfg.Notification.TelegramChatID == 0 {
			return fmt.Errorf("notification.telegram_token and notification.telegram_chat_id are required when type is \"telegram\"")
		}
	default:
		return fmt.Errorf("notification.type must be one of log, slack, telegram, none; got %q", cfg.Notification.Type)
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be \"text\" or \"json\", got %q", cfg.Log.Format)
	}
	return nil
}

// RequireLinkedIn checks the fields a scraping run needs once flags have been
// merged in.
func (c *Config) RequireLinkedIn() error {
	var missing []string
	if c.LinkedIn.Email == "" {
		missing = append(missing, "email")
	}
	if c.LinkedIn.SearchText == "" {
		missing = append(missing, "search text")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required linkedin settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
