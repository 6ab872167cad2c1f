package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Network.BindAddress)
	assert.Equal(t, "realmgo.db", cfg.Database.Path)
	assert.Equal(t, 5, cfg.RateLimit.AuthPerMinute)
	assert.Equal(t, 30*time.Second, cfg.Server.AutosaveEvery)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realmgo.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[network]
bind_address = ":9090"

[logging]
level = "debug"
format = "json"
`), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Network.BindAddress)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	// Untouched sections keep defaults.
	assert.Equal(t, 5, cfg.RateLimit.AuthPerMinute)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7777")
	t.Setenv("DB_PATH", "/tmp/other.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Network.BindAddress)
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)
}

func TestEnvPortIgnoredWhenInvalid(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Network.BindAddress)
}
