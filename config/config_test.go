package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, "media", cfg.MediaDir)
	assert.NotEmpty(t, cfg.JWTSecret, "development falls back to an insecure secret")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DB_NAME", "platefeed_dev")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.ServerPort)
	assert.Equal(t, "platefeed_dev", cfg.DBName)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateStorageBackend(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("STORAGE_BACKEND", "ftp")

	_, err := Load()
	assert.Error(t, err)
}
