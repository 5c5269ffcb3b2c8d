package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for pricecart-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Feed ingestion configuration
	Feeds FeedsConfig `yaml:"feeds"`

	// Comparison engine configuration
	Comparison ComparisonConfig `yaml:"comparison"`
}

// AuthConfig holds authentication-related configuration.
// Token issuance and user accounts live in an external auth service; this
// engine only extracts an opaque user id from the presented bearer token.
type AuthConfig struct {
	// EnableVerification controls whether bearer token signatures are
	// validated. Set to false for local development without the auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// SigningKey is the shared HMAC key used when verification is enabled.
	SigningKey string `yaml:"-" env:"AUTH_SIGNING_KEY"` // Secret - not in YAML
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"pricecart"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"pricecart"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`

	// Pool connections are recycled after ConnLifetime and reaped after
	// sitting idle for ConnIdleTime.
	ConnLifetime time.Duration `yaml:"conn_lifetime" env:"PGCONN_LIFETIME" env-default:"1h"`
	ConnIdleTime time.Duration `yaml:"conn_idle_time" env:"PGCONN_IDLE_TIME" env-default:"30m"`
}

// FeedsConfig holds feed ingestion settings.
type FeedsConfig struct {
	// Root is the directory containing one subdirectory per retail chain.
	Root string `yaml:"root" env:"FEEDS_ROOT" env-default:"feeds"`

	// ArchiveDir is the per-chain subdirectory processed files are moved to.
	ArchiveDir string `yaml:"archive_dir" env:"FEEDS_ARCHIVE_DIR" env-default:"process"`

	// Workers is the number of chain directories processed concurrently.
	// Files within a single chain are always processed sequentially
	// (store feeds strictly before price feeds).
	Workers int `yaml:"workers" env:"FEEDS_WORKERS" env-default:"1"`
}

// ComparisonConfig holds price comparison engine settings.
type ComparisonConfig struct {
	// MaxListItems bounds how many list items a single comparison will
	// accept; larger lists are rejected rather than partially compared.
	MaxListItems int `yaml:"max_list_items" env:"COMPARISON_MAX_LIST_ITEMS" env-default:"200"`

	// SearchLimit caps product search results.
	SearchLimit int `yaml:"search_limit" env:"COMPARISON_SEARCH_LIMIT" env-default:"15"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. A missing config.yaml is not an error; env defaults apply.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.Feeds.Workers < 1 {
		cfg.Feeds.Workers = 1
	}

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
