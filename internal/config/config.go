// Package config loads game settings from the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/lorenzotomasdiez/who-am-i/internal/game/characters"
)

// Oracle backends.
const (
	BackendOpenRouter = "openrouter"
	BackendOpenAI     = "openai"
	BackendOllama     = "ollama"
)

// Reverse-mode question strategies.
const (
	StrategySimple   = "simple"
	StrategyGuessing = "guessing"
)

// Classic-mode win detectors.
const (
	DetectorSubstring = "substring"
	DetectorOracle    = "oracle"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "qwen2.5:7b"
)

type Config struct {
	Backend          string        `env:"WHOAMI_BACKEND" envDefault:"openrouter"`
	APIKey           string        `env:"WHOAMI_API_KEY"`
	OpenRouterAPIKey string        `env:"OPENROUTER_API_KEY"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	BaseURL          string        `env:"WHOAMI_BASE_URL"`
	Model            string        `env:"WHOAMI_MODEL"`
	Theme            string        `env:"WHOAMI_THEME" envDefault:"disney"`
	Timeout          time.Duration `env:"WHOAMI_TIMEOUT" envDefault:"60s"`
	SummaryEvery     int           `env:"WHOAMI_SUMMARY_EVERY" envDefault:"10"`
	Strategy         string        `env:"WHOAMI_STRATEGY" envDefault:"simple"`
	WinDetector      string        `env:"WHOAMI_WIN_DETECTOR" envDefault:"substring"`
	LogLevel         string        `env:"WHOAMI_LOG_LEVEL" envDefault:"warn"`
	LogEncoding      string        `env:"WHOAMI_LOG_ENCODING" envDefault:"console"`
	MetricsAddr      string        `env:"WHOAMI_METRICS_ADDR"`
}

// Parse reads the environment without validating, so callers can apply
// overrides first.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field rules. It is called again after command-line
// flags override environment values.
func (c *Config) Validate() error {
	if !slices.Contains([]string{BackendOpenRouter, BackendOpenAI, BackendOllama}, c.Backend) {
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.Backend != BackendOllama && c.ResolvedAPIKey() == "" {
		return fmt.Errorf("config: API key required for %s backend: set WHOAMI_API_KEY", c.Backend)
	}
	if c.Backend == BackendOpenAI && c.Model == "" {
		return errors.New("config: WHOAMI_MODEL is required for openai backend")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: Timeout must be > 0, got %s", c.Timeout)
	}
	if _, ok := characters.Catalog(c.Theme); !ok {
		return fmt.Errorf("config: unknown theme %q, want one of %v", c.Theme, characters.Themes())
	}
	if c.SummaryEvery < 1 {
		return fmt.Errorf("config: SummaryEvery must be >= 1, got %d", c.SummaryEvery)
	}
	if !slices.Contains([]string{StrategySimple, StrategyGuessing}, c.Strategy) {
		return fmt.Errorf("config: unknown strategy %q", c.Strategy)
	}
	if !slices.Contains([]string{DetectorSubstring, DetectorOracle}, c.WinDetector) {
		return fmt.Errorf("config: unknown win detector %q", c.WinDetector)
	}
	return nil
}

// ResolvedAPIKey returns WHOAMI_API_KEY, or the backend's conventional
// variable when it is unset.
func (c *Config) ResolvedAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	switch c.Backend {
	case BackendOpenRouter:
		return c.OpenRouterAPIKey
	case BackendOpenAI:
		return c.OpenAIAPIKey
	}
	return ""
}

// ResolvedModel returns the configured model, defaulting for Ollama.
func (c *Config) ResolvedModel() string {
	if c.Model == "" && c.Backend == BackendOllama {
		return DefaultOllamaModel
	}
	return c.Model
}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}
