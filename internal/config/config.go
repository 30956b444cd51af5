package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.yaml.in/yaml/v3"
)

const (
	defaultTMDbBaseURL    = "https://api.themoviedb.org/3"
	defaultLanguage       = "en-US"
	defaultHTTPTimeout    = 30 * time.Second
	defaultDialTimeout    = 30 * time.Second
	defaultMaxAttempts    = 1
	defaultBaseDelay      = time.Second
	defaultMaxDelay       = 10 * time.Second
	defaultLogLevel       = "info"
	defaultTrendingWindow = "day"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config represents the main application configuration
type Config struct {
	TMDb TMDbConfig `yaml:"tmdb"`
	HTTP HTTPConfig `yaml:"http"`

	// Frontends
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`

	App AppConfig `yaml:"app"`
}

// TMDbConfig holds TMDb API configuration
type TMDbConfig struct {
	APIKey   string `yaml:"api_key"  validate:"required"`
	BaseURL  string `yaml:"base_url,omitempty"`
	Language string `yaml:"language,omitempty" validate:"omitempty,bcp47_language_tag"`
	// Region narrows now playing and upcoming, ISO 3166-1 alpha-2.
	Region string `yaml:"region,omitempty" validate:"omitempty,iso3166_1_alpha2"`
}

// HTTPConfig tunes the shared HTTP client.
type HTTPConfig struct {
	Timeout     time.Duration `yaml:"timeout,omitempty"      validate:"gte=0"`
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty" validate:"gte=0"`
	MaxAttempts int           `yaml:"max_attempts,omitempty" validate:"gte=0,lte=10"`
	BaseDelay   time.Duration `yaml:"base_delay,omitempty"   validate:"gte=0"`
	MaxDelay    time.Duration `yaml:"max_delay,omitempty"    validate:"gte=0"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string        `yaml:"bot_token" validate:"required"`
	AllowedUserIDs []int64       `yaml:"allowed_user_ids,omitempty"`
	// SessionIdleTTL evicts per-user sessions unused for this long. Zero uses the bot default.
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl,omitempty" validate:"gte=0"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel       string `yaml:"log_level"`       // "debug", "info", "warn", "error"
	TrendingWindow string `yaml:"trending_window"` // "day", "week"
}

// Load loads configuration from a YAML file with environment variable overrides
func Load(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a configuration from MOVIEDECK_* variables only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func validateConfigPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("failed to access config file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() error {
	// TMDb
	if v := os.Getenv("MOVIEDECK_TMDB_API_KEY"); v != "" {
		c.TMDb.APIKey = v
	}
	if v := os.Getenv("MOVIEDECK_TMDB_BASE_URL"); v != "" {
		c.TMDb.BaseURL = v
	}
	if v := os.Getenv("MOVIEDECK_TMDB_LANGUAGE"); v != "" {
		c.TMDb.Language = v
	}
	if v := os.Getenv("MOVIEDECK_TMDB_REGION"); v != "" {
		c.TMDb.Region = v
	}

	// HTTP
	if v := os.Getenv("MOVIEDECK_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MOVIEDECK_HTTP_TIMEOUT: %w", err)
		}
		c.HTTP.Timeout = d
	}
	if v := os.Getenv("MOVIEDECK_HTTP_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MOVIEDECK_HTTP_MAX_ATTEMPTS: %w", err)
		}
		c.HTTP.MaxAttempts = n
	}

	// Telegram
	if v := os.Getenv("MOVIEDECK_TELEGRAM_BOT_TOKEN"); v != "" {
		if c.Telegram == nil {
			c.Telegram = &TelegramConfig{}
		}
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("MOVIEDECK_TELEGRAM_ALLOWED_USER_IDS"); v != "" && c.Telegram != nil {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("MOVIEDECK_TELEGRAM_ALLOWED_USER_IDS: %w", err)
		}
		c.Telegram.AllowedUserIDs = ids
	}

	// App
	if v := os.Getenv("MOVIEDECK_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("MOVIEDECK_TRENDING_WINDOW"); v != "" {
		c.App.TrendingWindow = v
	}
	return nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return structErrors(err)
	}

	if c.TMDb.BaseURL != "" {
		if err := validateURL("tmdb.base_url", c.TMDb.BaseURL); err != nil {
			return err
		}
	}

	switch strings.ToLower(c.App.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be one of debug, info, warn, error; got %q", c.App.LogLevel)
	}
	switch c.App.TrendingWindow {
	case "", "day", "week":
	default:
		return fmt.Errorf("app.trending_window must be day or week; got %q", c.App.TrendingWindow)
	}

	if c.HTTP.MaxDelay > 0 && c.HTTP.BaseDelay > c.HTTP.MaxDelay {
		return fmt.Errorf("http.base_delay (%s) exceeds http.max_delay (%s)", c.HTTP.BaseDelay, c.HTTP.MaxDelay)
	}

	c.setDefaults()
	return nil
}

func (c *Config) setDefaults() {
	if c.TMDb.BaseURL == "" {
		c.TMDb.BaseURL = defaultTMDbBaseURL
	}
	c.TMDb.BaseURL = strings.TrimRight(c.TMDb.BaseURL, "/")
	if c.TMDb.Language == "" {
		c.TMDb.Language = defaultLanguage
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = defaultHTTPTimeout
	}
	if c.HTTP.DialTimeout == 0 {
		c.HTTP.DialTimeout = defaultDialTimeout
	}
	if c.HTTP.MaxAttempts == 0 {
		c.HTTP.MaxAttempts = defaultMaxAttempts
	}
	if c.HTTP.BaseDelay == 0 {
		c.HTTP.BaseDelay = defaultBaseDelay
	}
	if c.HTTP.MaxDelay == 0 {
		c.HTTP.MaxDelay = defaultMaxDelay
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultLogLevel
	}
	if c.App.TrendingWindow == "" {
		c.App.TrendingWindow = defaultTrendingWindow
	}
}

// validateURL requires an absolute http(s) URL with a host.
func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: URL must use http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: URL is missing host", field)
	}
	return nil
}

// FieldError is one failed struct validation rule.
type FieldError struct {
	Field string
	Tag   string
	Param string
	Value any
}

func (e *FieldError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: failed %s=%s (got %v)", e.Field, e.Tag, e.Param, e.Value)
	}
	if e.Tag == "required" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: failed %s (got %v)", e.Field, e.Tag, e.Value)
}

func structErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, &FieldError{
			Field: yamlPath(fe.Namespace()),
			Tag:   fe.ActualTag(),
			Param: fe.Param(),
			Value: fe.Value(),
		})
	}
	return errors.Join(errs...)
}

var yamlNames = map[string]string{
	"Config":         "",
	"TMDb":           "tmdb",
	"HTTP":           "http",
	"Telegram":       "telegram",
	"App":            "app",
	"APIKey":         "api_key",
	"Language":       "language",
	"Region":         "region",
	"Timeout":        "timeout",
	"DialTimeout":    "dial_timeout",
	"MaxAttempts":    "max_attempts",
	"BaseDelay":      "base_delay",
	"MaxDelay":       "max_delay",
	"BotToken":       "bot_token",
	"AllowedUserIDs": "allowed_user_ids",
}

// yamlPath turns "Config.TMDb.APIKey" into "tmdb.api_key".
func yamlPath(namespace string) string {
	var parts []string
	for p := range strings.SplitSeq(namespace, ".") {
		name, ok := yamlNames[p]
		if !ok {
			name = strings.ToLower(p)
		}
		if name != "" {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ".")
}
