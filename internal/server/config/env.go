package config

import "os"

// Environment variables read by parseEnv.
const (
	EnvDatabaseDriver = "RFC_DB_DRIVER"
	EnvDatabaseDSN    = "RFC_DB_DSN"
	EnvSecretKey      = "RFC_SECRET_KEY"
	EnvLogLevel       = "RFC_LOG_LEVEL"
)

// parseEnv overlays non-empty environment variables onto config.
func parseEnv(config *Config) {
	setIfNotEmpty(&config.DatabaseDriver, os.Getenv(EnvDatabaseDriver))
	setIfNotEmpty(&config.DatabaseDSN, os.Getenv(EnvDatabaseDSN))
	setIfNotEmpty(&config.SecretKey, os.Getenv(EnvSecretKey))
	setIfNotEmpty(&config.LogLevel, os.Getenv(EnvLogLevel))
}
