// Package config handles configuration for the rfcdiscuss core, including
// defaults, a JSON overlay, environment variables and command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/rfcdiscuss/internal/server/storage"
)

// Config holds runtime settings.
//
// Fields:
//   - DatabaseDriver: "sqlite" (modernc.org/sqlite) or "postgres" (pgx).
//   - DatabaseDSN: file path or URI for SQLite, connection string for PostgreSQL.
//   - SecretKey: HMAC secret for signing session tokens (HS256). Do not use test defaults in prod.
//   - SessionValidityDuration: lifetime of a session token issued after login.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	DatabaseDriver          string
	DatabaseDSN             string
	SecretKey               string
	SessionValidityDuration time.Duration
	LogLevel                string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = storage.DriverSQLite
	c.DatabaseDSN = "rfcdiscuss.db"
	c.SecretKey = "secretKey"
	c.SessionValidityDuration = 24 * time.Hour
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line
// flags found in args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	parseEnv(cfg)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the store or token signer cannot work with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN is empty")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key is empty")
	}
	if c.SessionValidityDuration <= 0 {
		return fmt.Errorf("session validity must be positive, got %s", c.SessionValidityDuration)
	}
	return nil
}
