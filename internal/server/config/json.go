package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/rfcdiscuss/internal/flagx"
	"github.com/dmitrijs2005/rfcdiscuss/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration, so both "24h" and integer nanoseconds are accepted.
// Absent keys leave the current value alone.
type JsonConfig struct {
	DatabaseDriver          string          `json:"database_driver"`
	DatabaseDSN             string          `json:"database_dsn"`
	SecretKey               string          `json:"secret_key"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	LogLevel                string          `json:"log_level"`
}

// parseJson loads the file named by -c/-config (or RFC_CONFIG) into config.
// Without a file name nothing happens.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFileFlags(args)
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	setIfNotEmpty(&config.DatabaseDriver, c.DatabaseDriver)
	setIfNotEmpty(&config.DatabaseDSN, c.DatabaseDSN)
	setIfNotEmpty(&config.SecretKey, c.SecretKey)
	setIfNotEmpty(&config.LogLevel, c.LogLevel)
	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
