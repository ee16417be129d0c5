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

	assert.Equal(t, "data/EV-friendly hotels in Europe.kmz", cfg.Convert.ArchivePath)
	assert.Equal(t, "data/EV-friendly hotels in Europe.csv", cfg.Convert.OutputPath)
	assert.Empty(t, cfg.Convert.WorkDir)
	assert.Empty(t, cfg.Convert.Document)
	assert.Equal(t, "emit", cfg.Convert.MalformedPolicy)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "evmap.db", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(4), cfg.Store.Pool.MaxConns)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 15, cfg.Server.ReadTimeoutSecs)
	assert.Equal(t, cfg.Convert.OutputPath, cfg.Seed.CSVPath)
	assert.False(t, cfg.Seed.Truncate)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
convert:
  archive_path: maps/hotels.kmz
  malformed_policy: drop
store:
  driver: postgres
  database_url: postgres://localhost/evmap
log:
  level: debug
  format: console
server:
  port: 9090
  cors_origins:
    - https://maps.example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "maps/hotels.kmz", cfg.Convert.ArchivePath)
	assert.Equal(t, "drop", cfg.Convert.MalformedPolicy)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://maps.example.com"}, cfg.Server.CORSOrigins)
	// Defaults still apply for unset values
	assert.Equal(t, "data/EV-friendly hotels in Europe.csv", cfg.Convert.OutputPath)
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

	t.Setenv("EVMAP_STORE_DRIVER", "postgres")
	t.Setenv("EVMAP_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("EVMAP_SERVER_PORT", "3000")
	t.Setenv("EVMAP_CONVERT_OUTPUT_PATH", "out/seed.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "out/seed.csv", cfg.Convert.OutputPath)
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

// validDefaults returns a Config with the defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Convert.ArchivePath = "data/hotels.kmz"
	cfg.Convert.OutputPath = "data/hotels.csv"
	cfg.Convert.MalformedPolicy = "emit"
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "evmap.db"
	cfg.Seed.CSVPath = "data/hotels.csv"
	cfg.Server.Port = 8080
	cfg.Fetch.MaxRetries = 3
	return cfg
}

func TestValidate_AllModesValid(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"convert", "layers", "seed", "serve", "token", "migrate"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateConvert_UnknownPolicy(t *testing.T) {
	cfg := validDefaults()
	cfg.Convert.MalformedPolicy = "explode"

	err := cfg.Validate("convert")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `convert.malformed_policy "explode"`)
}

func TestValidateConvert_MissingPaths(t *testing.T) {
	cfg := validDefaults()
	cfg.Convert.ArchivePath = ""
	cfg.Convert.OutputPath = ""

	err := cfg.Validate("convert")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "convert.output_path is required")
	assert.Contains(t, err.Error(), "convert.archive_path is required")
}

func TestValidateSeed_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("seed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `store.driver "mysql"`)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
