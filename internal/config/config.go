package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the HR gateway service.
// Environment variables are parsed from the HR_GATEWAY_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Relational engine (employees). Row-level security lives in the database;
	// the adapter only supplies caller identity per transaction.
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Document engine (time-off requests) and confirmation store share one
	// SQLite file by default.
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/hr-gateway.db"`

	// Search engine (support tickets), host:port without scheme.
	SearchIndexURL string `envconfig:"SEARCH_INDEX_URL" default:"weaviate:8080"`

	// Write-confirmation handshake
	ConfirmTTLSeconds   int `envconfig:"CONFIRM_TTL_SECONDS" default:"300"`
	ConfirmSweepSeconds int `envconfig:"CONFIRM_SWEEP_SECONDS" default:"60"`

	// Role sets consumed by the role filter builder. Comma-separated.
	FullAccessRoles string `envconfig:"FULL_ACCESS_ROLES" default:"hr-admin,executive"`
	TeamRoles       string `envconfig:"TEAM_ROLES" default:"manager"`

	// Per-backend call deadline applied when the inbound request carries none.
	BackendTimeoutSeconds int `envconfig:"BACKEND_TIMEOUT_SECONDS" default:"10"`

	// Startup bootstrap (schema checks) deadline.
	BootstrapTimeoutSeconds int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"30"`
}

// New creates a new Config by parsing environment variables.
// Example: HR_GATEWAY_POSTGRES_DSN, HR_GATEWAY_HTTP_PORT.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("HR_GATEWAY", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("postgres_dsn_present", func() string {
			if cfg.PostgresDSN != "" {
				return "true"
			}
			return "false"
		}()).
		Str("sqlite_path", cfg.SQLitePath).
		Str("search_index_url", cfg.SearchIndexURL).
		Int("confirm_ttl_seconds", cfg.ConfirmTTLSeconds).
		Msg("Configuration loaded")

	return &cfg, nil
}

// Validate rejects settings that would break the handshake or pagination.
func (c *Config) Validate() error {
	if c.ConfirmTTLSeconds <= 0 {
		return fmt.Errorf("CONFIRM_TTL_SECONDS must be positive, got %d", c.ConfirmTTLSeconds)
	}
	if c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required")
	}
	if c.SearchIndexURL == "" {
		return fmt.Errorf("SEARCH_INDEX_URL is required")
	}
	return nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:             EnvTesting,
		HTTPPort:                8080,
		SQLitePath:              ":memory:",
		SearchIndexURL:          "localhost:8082",
		ConfirmTTLSeconds:       300,
		ConfirmSweepSeconds:     60,
		FullAccessRoles:         "hr-admin,executive",
		TeamRoles:               "manager",
		BackendTimeoutSeconds:   10,
		BootstrapTimeoutSeconds: 30,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// ConfirmTTL returns the pending-action time-to-live as a duration.
func (c *Config) ConfirmTTL() time.Duration {
	return time.Duration(c.ConfirmTTLSeconds) * time.Second
}

// BackendTimeout returns the default per-backend call deadline.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSeconds) * time.Second
}

// FullAccessRoleSet splits FullAccessRoles into a trimmed slice.
func (c *Config) FullAccessRoleSet() []string { return splitRoles(c.FullAccessRoles) }

// TeamRoleSet splits TeamRoles into a trimmed slice.
func (c *Config) TeamRoleSet() []string { return splitRoles(c.TeamRoles) }

func splitRoles(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
