package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commander.yaml")
	raw := `
server:
  port: "9999"
database:
  driver: sqlite3
  url: ":memory:"
cache:
  backend: none
observability:
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	// Untouched values keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("COMMANDER_PORT", "7777")
	t.Setenv("COMMANDER_DB_DRIVER", "sqlite3")
	t.Setenv("COMMANDER_DB_URL", ":memory:")
	t.Setenv("COMMANDER_CACHE_TTL", "2m")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "7777", cfg.Server.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
}

func TestValidateRejectsBadDriver(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsRedisWithoutURL(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.Backend = "redis"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsPortCollision(t *testing.T) {
	cfg := Defaults()
	cfg.Server.HealthPort = cfg.Server.Port
	assert.Error(t, cfg.Validate())
}
