// Package application assembles the pipeline from configuration:
// provider client, oracle, cache, orchestrator, batch runner, and the
// optional Drive and Sheets exporters.
package application

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vcdesk/deckeval/internal/scoring"
)

// Config is the application configuration, loaded from YAML with
// environment variables supplying the secrets.
type Config struct {
	// Provider selects the model backend: google, openai, or anthropic.
	Provider string `yaml:"provider" validate:"required,oneof=google openai anthropic"`

	// Model overrides the provider's default model when non-empty.
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable carrying the provider
	// API key.
	APIKeyEnv string `yaml:"api_key_env" validate:"required"`

	// Workers bounds batch parallelism.
	Workers int `yaml:"workers" validate:"min=0,max=64"`

	// OracleConcurrency bounds concurrent model calls process-wide.
	OracleConcurrency int64 `yaml:"oracle_concurrency" validate:"min=0,max=32"`

	// RequestsPerSecond paces outbound model calls; zero disables the
	// rate limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"min=0"`

	// RequestTimeout bounds a single model call.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// CachePath locates the evaluation cache blob.
	CachePath string `yaml:"cache_path" validate:"required"`

	// DriveFolderID enables report publishing when non-empty.
	DriveFolderID string `yaml:"drive_folder_id"`

	// SpreadsheetID enables row logging when non-empty.
	SpreadsheetID string `yaml:"spreadsheet_id"`

	// SheetName selects the worksheet; empty uses the first sheet.
	SheetName string `yaml:"sheet_name"`

	// CredentialsFile points at a Google service account key used by
	// the Drive and Sheets exporters.
	CredentialsFile string `yaml:"credentials_file"`

	// Scoring overrides the default scoring constants.
	Scoring scoring.Config `yaml:"scoring"`
}

var validate = validator.New()

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Provider:          "google",
		APIKeyEnv:         "GOOGLE_API_KEY",
		Workers:           4,
		OracleConcurrency: 2,
		RequestTimeout:    2 * time.Minute,
		CachePath:         "deckeval_cache.json",
		Scoring:           scoring.DefaultConfig(),
	}
}

// LoadConfig reads and validates a YAML config file. Zero-valued
// fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and the scoring config.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("invalid scoring config: %w", err)
	}
	return nil
}

// APIKey resolves the provider API key from the environment.
func (c Config) APIKey() (string, error) {
	key := os.Getenv(c.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", c.APIKeyEnv)
	}
	return key, nil
}
