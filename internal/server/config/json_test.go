package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	t.Setenv("RFC_CONFIG", "")

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"database_driver":           "postgres",
		"database_dsn":              "postgres://flag",
		"secret_key":                "my_secret_key",
		"session_validity_duration": "2h",
		"log_level":                 "error",
	})
	pathEnv := writeTempJSON(t, dir, "env.json", map[string]any{
		"database_dsn":              "env.db",
		"session_validity_duration": float64(time.Minute),
	})

	t.Run("loads from flag", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, parseJson(cfg, []string{"-config", pathFlag}))

		assert.Equal(t, "postgres", cfg.DatabaseDriver)
		assert.Equal(t, "postgres://flag", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 2*time.Hour, cfg.SessionValidityDuration)
		assert.Equal(t, "error", cfg.LogLevel)
	})

	t.Run("falls back to env and keeps absent keys", func(t *testing.T) {
		t.Setenv("RFC_CONFIG", pathEnv)

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, nil))

		assert.Equal(t, "sqlite", cfg.DatabaseDriver)
		assert.Equal(t, "env.db", cfg.DatabaseDSN)
		assert.Equal(t, time.Minute, cfg.SessionValidityDuration)
	})

	t.Run("flag wins over env", func(t *testing.T) {
		t.Setenv("RFC_CONFIG", pathEnv)

		cfg := &Config{}
		require.NoError(t, parseJson(cfg, []string{"-c", pathFlag}))
		assert.Equal(t, "postgres://flag", cfg.DatabaseDSN)
	})

	t.Run("no file is a no-op", func(t *testing.T) {
		cfg := &Config{DatabaseDSN: "keep"}
		require.NoError(t, parseJson(cfg, []string{"migrate"}))
		assert.Equal(t, "keep", cfg.DatabaseDSN)
	})
}

func Test_parseJson_Invalid(t *testing.T) {
	t.Setenv("RFC_CONFIG", "")

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	err := parseJson(&Config{}, []string{"-c", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func Test_parseEnv(t *testing.T) {
	t.Setenv(EnvDatabaseDriver, "postgres")
	t.Setenv(EnvDatabaseDSN, "postgres://env")
	t.Setenv(EnvSecretKey, "")
	t.Setenv(EnvLogLevel, "debug")

	cfg := &Config{SecretKey: "keep"}
	parseEnv(cfg)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://env", cfg.DatabaseDSN)
	assert.Equal(t, "keep", cfg.SecretKey)
	assert.Equal(t, "debug", cfg.LogLevel)
}
