package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t, "APP_PORT", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DB", "REDIS_ENABLED",
		"CACHE_TTL_MINUTES", "CACHE_PREFIX", "AUTO_MIGRATE", "LOG_LEVEL")

	cfg, _, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.AppPort)
	assert.Equal(t, "localhost", cfg.PostgresHost)
	assert.Equal(t, 5432, cfg.PostgresPort)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "cruces:", cfg.CachePrefix)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_DB", "semaforos")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CACHE_TTL_MINUTES", "5")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("POSTGRES_PORT", "not-a-number")

	cfg, _, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.AppPort)
	assert.Equal(t, "db.internal", cfg.PostgresHost)
	assert.Equal(t, 5432, cfg.PostgresPort, "unparsable values fall back")
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.AutoMigrate)
	assert.Contains(t, cfg.PostgresDSN(), "host=db.internal port=5432")
	assert.Contains(t, cfg.PostgresDSN(), "dbname=semaforos")
}

func TestLoadConfigRejectsBadPort(t *testing.T) {
	t.Setenv("APP_PORT", "70000")
	_, _, err := LoadConfig()
	assert.Error(t, err)
}
