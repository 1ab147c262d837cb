package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "nectar.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, "data/observations.csv", cfg.Inputs.Observations)
	assert.Equal(t, 2, cfg.Resolver.MinKnownRows)
	assert.Equal(t, 2, cfg.Resolver.MinUnknownRows)
	assert.InDelta(t, 0.35, cfg.Resolver.MaxKSDistance, 0.001)
	assert.Equal(t, 9, cfg.Estimate.BractThreshold)
	assert.InDelta(t, 2.0, cfg.Estimate.BractFloorFlowers, 0.001)
	assert.InDelta(t, 3.94, cfg.Nectar.KcalPerGram, 0.001)
	assert.NoError(t, cfg.Validate("run"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/nectar
log:
  level: debug
  format: console
inputs:
  observations: field/plants.xlsx
  nectar: field/nectar.csv
output:
  format: xlsx
estimate:
  bract_threshold: 7
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/nectar", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "field/plants.xlsx", cfg.Inputs.Observations)
	assert.Equal(t, "field/nectar.csv", cfg.Inputs.Nectar)
	assert.Equal(t, "xlsx", cfg.Output.Format)
	assert.Equal(t, 7, cfg.Estimate.BractThreshold)
	// Defaults still apply for unset values
	assert.InDelta(t, 2.0, cfg.Estimate.BractFloorFlowers, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("NECTAR_STORE_DRIVER", "none")
	t.Setenv("NECTAR_LOG_LEVEL", "warn")
	t.Setenv("NECTAR_INPUTS_CAMERAS", "cams.csv")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "cams.csv", cfg.Inputs.Cameras)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "nectar.db"
	cfg.Output.Format = "csv"
	cfg.Inputs.Observations = "obs.csv"
	cfg.Resolver.MaxKSDistance = 0.35
	cfg.Estimate.BractThreshold = 9
	cfg.Nectar.KcalPerGram = 3.94
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateRun(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("run"))

	cfg.Inputs.Observations = ""
	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inputs.observations is required")
}

func TestValidateSharedSettings(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Output.Format = "parquet"
	cfg.Nectar.KcalPerGram = 0
	cfg.Resolver.MaxKSDistance = 1.5

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `store.driver "mysql"`)
	assert.Contains(t, err.Error(), `output.format "parquet"`)
	assert.Contains(t, err.Error(), "nectar.kcal_per_gram must be > 0")
	assert.Contains(t, err.Error(), "resolver.max_ks_distance")
}

func TestValidateStoreURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""
	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.Driver = "none"
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	cfg.Server.Port = 8080
	cfg.Store.Driver = "none"
	err = cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serve needs a store")
}

func TestValidateSites(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("sites")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inputs.sites is required")

	cfg.Inputs.Sites = "patches.shp"
	assert.NoError(t, cfg.Validate("sites"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
