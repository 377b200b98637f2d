package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Portal    PortalConfig
	Taxonomy  TaxonomyConfig
	Documents DocumentsConfig
	Server    ServerConfig
	Logging   LogConfig
}

// PortalConfig holds remote wizard portal configuration.
type PortalConfig struct {
	BaseURL    string        `envconfig:"PORTAL_BASE_URL" default:"https://portal.example.gov"`
	EntryPath  string        `envconfig:"PORTAL_ENTRY_PATH" default:"/wizard/start.xhtml"`
	WizardPath string        `envconfig:"PORTAL_WIZARD_PATH" default:"/wizard/application.xhtml"`
	UserAgent  string        `envconfig:"PORTAL_USER_AGENT" default:"filingpilot/1.0"`
	Timeout    time.Duration `envconfig:"PORTAL_TIMEOUT" default:"60s"`
	// Retries stay at zero: re-submitting a stage duplicates server-side
	// wizard effects. Raise only for idempotent probing against fixtures.
	MaxRetries        int     `envconfig:"PORTAL_MAX_RETRIES" default:"0"`
	RequestsPerSecond float64 `envconfig:"PORTAL_RPS" default:"2"`
}

// TaxonomyConfig holds the advisory classification-term validator.
type TaxonomyConfig struct {
	Address string        `envconfig:"TAXONOMY_ADDR" default:""`
	Enabled bool          `envconfig:"TAXONOMY_ENABLED" default:"false"`
	Timeout time.Duration `envconfig:"TAXONOMY_TIMEOUT" default:"10s"`
}

// DocumentsConfig holds the document finalization service.
type DocumentsConfig struct {
	Address string        `envconfig:"DOCUMENTS_ADDR" default:"https://portal.example.gov/documents"`
	Timeout time.Duration `envconfig:"DOCUMENTS_TIMEOUT" default:"60s"`
}

// ServerConfig holds the REST surface configuration.
type ServerConfig struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port string `envconfig:"PORT" default:"8080"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL:           "https://portal.example.gov",
			EntryPath:         "/wizard/start.xhtml",
			WizardPath:        "/wizard/application.xhtml",
			UserAgent:         "filingpilot/1.0",
			Timeout:           60 * time.Second,
			MaxRetries:        0,
			RequestsPerSecond: 2,
		},
		Taxonomy: TaxonomyConfig{
			Enabled: false,
			Timeout: 10 * time.Second,
		},
		Documents: DocumentsConfig{
			Address: "https://portal.example.gov/documents",
			Timeout: 60 * time.Second,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
