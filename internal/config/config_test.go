package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, int32(8288), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Cache.PriceTTL)
	assert.Equal(t, 3*time.Hour, cfg.Cache.WeatherTTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.PriceMaxAge)
	assert.Equal(t, 30*time.Second, cfg.Sync.ReconcileInterval)
	assert.Equal(t, 10, cfg.Sync.MaxRetries)
	assert.Equal(t, RemoteNone, cfg.Sync.Remote)
	assert.Equal(t, MinEncryptionIterations, cfg.Encryption.Iterations)
	assert.True(t, cfg.Tasks.Enabled)
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("PRICE_CACHE_TTL", "12h")
	t.Setenv("SYNC_REMOTE", "MEMORY")
	t.Setenv("SYNC_MAX_RETRIES", "0")
	t.Setenv("HTTP_PORT", "9000")

	cfg := NewConfig()
	assert.Equal(t, 12*time.Hour, cfg.Cache.PriceTTL)
	assert.Equal(t, RemoteMemory, cfg.Sync.Remote)
	assert.Zero(t, cfg.Sync.MaxRetries)
	assert.Equal(t, int32(9000), cfg.HTTP.Port)
}

func TestNewConfig_IterationFloor(t *testing.T) {
	t.Setenv("ENCRYPTION_ITERATIONS", "1000")
	assert.Equal(t, MinEncryptionIterations, NewConfig().Encryption.Iterations)

	t.Setenv("ENCRYPTION_ITERATIONS", "600000")
	assert.Equal(t, 600000, NewConfig().Encryption.Iterations)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("WEATHER_CACHE_TTL=90m\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("WEATHER_CACHE_TTL") })

	LoadDotEnv(path)
	assert.Equal(t, 90*time.Minute, NewConfig().Cache.WeatherTTL)

	// A missing file is not fatal.
	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
}
