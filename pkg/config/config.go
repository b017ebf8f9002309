package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	charmlog "github.com/charmbracelet/log"
	"github.com/labstack/gommon/log"
)

// Config holds every setting the service reads from the environment.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	Provider string `env:"LLM_PROVIDER" envDefault:"openai"`
	APIKey   string `env:"OPENAI_API_KEY"`
	Model    string `env:"OPENAI_MODEL"` // empty uses the provider default
	BaseURL  string `env:"LLM_BASE_URL"`

	GeminiKey   string `env:"GEMINI_API_KEY"`
	GeminiModel string `env:"GEMINI_MODEL"`

	ImageKey     string `env:"IMAGE_API_KEY"`
	ImageBaseURL string `env:"IMAGE_BASE_URL"`
	ImageModel   string `env:"IMAGE_MODEL" envDefault:"google/gemini-2.5-flash-image-preview"`
	ImageMode    string `env:"IMAGE_MODE" envDefault:"chat"`
	ImageDir     string `env:"IMAGE_DIR" envDefault:"images"`
	QueueSize    int    `env:"QUEUE_SIZE" envDefault:"100"`
	Workers      int    `env:"IMAGE_WORKERS" envDefault:"2"`

	DBPath        string `env:"DB_PATH" envDefault:"taleweaver.db"`
	NamePoolsPath string `env:"NAME_POOLS_PATH"`

	HistoryTokenBudget int    `env:"HISTORY_TOKEN_BUDGET" envDefault:"6000"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"debug"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return &cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// EchoLevel maps LogLevel onto the echo logger levels.
func (c *Config) EchoLevel() log.Lvl {
	switch strings.ToLower(c.LogLevel) {
	case "info":
		return log.INFO
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.DEBUG
	}
}

// StructuredLevel maps LogLevel onto the structured logger levels.
func (c *Config) StructuredLevel() charmlog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "info":
		return charmlog.InfoLevel
	case "warn", "warning":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	case "off":
		// Above every level the handlers log at.
		return charmlog.FatalLevel + 1
	default:
		return charmlog.DebugLevel
	}
}
