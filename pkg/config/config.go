package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the SQL generation engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values. Secrets (API keys,
// connection strings) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// LLM backend configuration
	LLM LLMConfig `yaml:"llm"`

	// Generation pipeline budgets and temperature policy
	Generation GenerationConfig `yaml:"generation"`

	// Target datasource for schema lookup and dry-run validation
	Datasource DatasourceConfig `yaml:"datasource"`

	// Iterative fallback strategy settings
	Fallback FallbackConfig `yaml:"fallback"`
}

// LLMConfig holds language-model backend settings.
type LLMConfig struct {
	// Provider selects the client implementation: "openai" or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o"`
	APIKey   string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
}

// GenerationConfig bounds the generate/validate/fix loop.
// MaxFixAttempts is nested within MaxAttempts: a fix never consumes a
// generation attempt, and fixes stop once their own budget is spent.
type GenerationConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" env:"GENERATION_MAX_ATTEMPTS" env-default:"3"`
	MaxFixAttempts   int     `yaml:"max_fix_attempts" env:"GENERATION_MAX_FIX_ATTEMPTS" env-default:"1"`
	BaseTemperature  float64 `yaml:"base_temperature" env:"GENERATION_BASE_TEMPERATURE" env-default:"0.1"`
	RetryTemperature float64 `yaml:"retry_temperature" env:"GENERATION_RETRY_TEMPERATURE" env-default:"0.7"`
	DryRunRowLimit   int     `yaml:"dry_run_row_limit" env:"GENERATION_DRY_RUN_ROW_LIMIT" env-default:"1"`
}

// DatasourceConfig identifies the database generated SQL targets.
type DatasourceConfig struct {
	Type string `yaml:"type" env:"DATASOURCE_TYPE" env-default:"postgres"`
	ID   string `yaml:"id" env:"DATASOURCE_ID" env-default:""`
	DSN  string `yaml:"-" env:"DATASOURCE_DSN"` // Secret - not in YAML
}

// DatasourceID parses the configured datasource identifier.
// Returns uuid.Nil when unset.
func (d *DatasourceConfig) DatasourceID() (uuid.UUID, error) {
	if d.ID == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid datasource id %q: %w", d.ID, err)
	}
	return id, nil
}

// FallbackConfig controls the iterative fallback strategy.
type FallbackConfig struct {
	// Enabled allows delegating to the fallback when the fast path cannot run
	// or fails. Disable to surface coordinator failures directly.
	Enabled bool `yaml:"enabled" env:"FALLBACK_ENABLED" env-default:"true"`
}

// Load reads configuration from config.yaml with environment variable
// overrides, or from the environment alone when no file is present.
// The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate checks budget invariants at load time so the coordinator can
// trust them unconditionally.
func (c *Config) validate() error {
	if c.Generation.MaxAttempts < 0 {
		return fmt.Errorf("generation.max_attempts must be >= 0, got %d", c.Generation.MaxAttempts)
	}
	if c.Generation.MaxFixAttempts < 0 {
		return fmt.Errorf("generation.max_fix_attempts must be >= 0, got %d", c.Generation.MaxFixAttempts)
	}
	if c.Generation.MaxFixAttempts > c.Generation.MaxAttempts {
		return fmt.Errorf("generation.max_fix_attempts (%d) must not exceed generation.max_attempts (%d)",
			c.Generation.MaxFixAttempts, c.Generation.MaxAttempts)
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be \"openai\" or \"anthropic\", got %q", c.LLM.Provider)
	}
	return nil
}
