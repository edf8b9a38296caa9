// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "rental-platform", cfg.JWT.Issuer)
	assert.Equal(t, "permits:status", cfg.Redis.StatusStream)
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.MaxUploadBytes())
	assert.Equal(t, "MI", cfg.Permit.MoveInPrefix)
	assert.Equal(t, "MO", cfg.Permit.MoveOutPrefix)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("UPLOAD_ALLOWED_TYPES", "application/pdf, image/png ,")
	t.Setenv("UPLOAD_PUBLIC", "TRUE")
	t.Setenv("SERVER_READ_TIMEOUT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, "cache:6380", cfg.Redis.Addr())
	assert.Equal(t, []string{"application/pdf", "image/png"}, cfg.Upload.AllowedTypes)
	assert.True(t, cfg.Upload.Public)
	assert.Equal(t, 15, cfg.Server.ReadTimeout)
}

func TestValidateProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_PASSWORD", "secret")

	_, err := Load()
	assert.Error(t, err, "default JWT secret must be rejected in production")

	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = Load()
	assert.NoError(t, err)
}

func TestValidateUploadLimit(t *testing.T) {
	t.Setenv("UPLOAD_MAX_SIZE_MB", "0")

	_, err := Load()
	assert.Error(t, err)
}
