package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Market   MarketConfig   `yaml:"market" envconfig:"MARKET"`
	Export   ExportConfig   `yaml:"export" envconfig:"EXPORT"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// MarketConfig contains upstream market data source configuration
type MarketConfig struct {
	// BaseURL points at a CoinGecko-compatible REST API
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	// Currencies lists the quote currencies the dashboard serves
	Currencies   []string      `yaml:"currencies" envconfig:"CURRENCIES" validate:"min=1,dive,alpha"`
	PerPage      int           `yaml:"per_page" envconfig:"PER_PAGE" validate:"min=1,max=250"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" validate:"gt=0"`
	// RefreshInterval drives the background refresh loop; 0 disables it
	RefreshInterval time.Duration `yaml:"refresh_interval" envconfig:"REFRESH_INTERVAL" validate:"min=0"`
	// EnrichWorkers bounds concurrent per-record category lookups; 0 disables enrichment
	EnrichWorkers int `yaml:"enrich_workers" envconfig:"ENRICH_WORKERS" validate:"min=0,max=64"`
	// Locale selects the collation used for string sort keys
	Locale string `yaml:"locale" envconfig:"LOCALE" validate:"required,bcp47_language_tag"`
}

// ExportConfig contains CSV export configuration
type ExportConfig struct {
	Dir    string `yaml:"dir" envconfig:"DIR" validate:"required"`
	Prefix string `yaml:"prefix" envconfig:"PREFIX" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// SecurityConfig contains inbound API protection configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration for the API surface.
// This limits our own endpoints only; upstream API quotas are not managed here.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"min=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"min=0"`
}

// Load loads configuration from defaults, an optional YAML file, and
// environment variables, in that order of precedence (env wins).
func Load() (*Config, error) {
	cfg := Default()

	if path := configFilePath(); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("SCREENER", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate validates the configuration using struct tags
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file path required for output mode %q", c.Logging.Output)
	}
	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive when enabled")
	}

	return nil
}

// configFilePath returns the path to the config file, if one exists
func configFilePath() string {
	if path := os.Getenv("SCREENER_CONFIG"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Market: MarketConfig{
			BaseURL:         "https://api.coingecko.com/api/v3",
			Currencies:      []string{"usd"},
			PerPage:         200,
			FetchTimeout:    20 * time.Second,
			RefreshInterval: time.Minute,
			EnrichWorkers:   8,
			Locale:          "en",
		},
		Export: ExportConfig{
			Dir:    "exports",
			Prefix: "markets",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
	}
}
