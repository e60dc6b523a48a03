package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  database_path: transactions.db
reconcile:
  time_tolerance: 12h
  quantity_tolerance: 0.05
api:
  port: 9090
  allowed_origins:
    - http://localhost:4000
observability:
  logging:
    level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "transactions.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 12*time.Hour, cfg.Reconcile.TimeTolerance.Std())
	assert.Equal(t, 0.05, cfg.Reconcile.QuantityTolerance)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, []string{"http://localhost:4000"}, cfg.API.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
}

func TestLoadFromYAML_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfigFile(t, `
storage:
  database_path: only-this.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "only-this.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 24*time.Hour, cfg.Reconcile.TimeTolerance.Std())
	assert.Equal(t, 0.1, cfg.Reconcile.QuantityTolerance)
	assert.Equal(t, 8080, cfg.API.Port)
}

func TestLoadFromYAML_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_DIR", "/var/data")
	path := writeConfigFile(t, `
storage:
  database_path: ${TEST_DB_DIR}/cryptofolio.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/data/cryptofolio.db", cfg.Storage.DatabasePath)
}

func TestLoadFromYAML_BadDuration(t *testing.T) {
	path := writeConfigFile(t, `
reconcile:
  time_tolerance: one-day
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CRYPTOFOLIO_DB_PATH", "env.db")
	t.Setenv("RECONCILE_TIME_TOLERANCE", "36h")
	t.Setenv("RECONCILE_QUANTITY_TOLERANCE", "0.2")
	t.Setenv("API_PORT", "9999")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := LoadFromEnv()

	assert.Equal(t, "env.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 36*time.Hour, cfg.Reconcile.TimeTolerance.Std())
	assert.Equal(t, 0.2, cfg.Reconcile.QuantityTolerance)
	assert.Equal(t, 9999, cfg.API.Port)
	assert.Equal(t, "warn", cfg.Observability.Logging.Level)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	os.Unsetenv("CRYPTOFOLIO_DB_PATH")
	os.Unsetenv("RECONCILE_TIME_TOLERANCE")

	cfg := LoadFromEnv()

	assert.Equal(t, "cryptofolio.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 24*time.Hour, cfg.Reconcile.TimeTolerance.Std())
}

func TestLoadOrEnvWithPath_FallsBackWhenMissing(t *testing.T) {
	cfg := LoadOrEnvWithPath(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NotNil(t, cfg)
	assert.Equal(t, "cryptofolio.db", cfg.Storage.DatabasePath)
}
