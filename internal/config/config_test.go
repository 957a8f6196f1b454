package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "viewer")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "viewer")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_ACCESS_KEY", "minio")
	t.Setenv("MINIO_SECRET_KEY", "minio123")
	t.Setenv("MINIO_BUCKET", "models")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VIEWER_PORT", "9090")
	t.Setenv("MINIO_SSL", "true")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("COMPRESSOR_PATH", "/usr/local/bin/gltfpack")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.AppPort)
	assert.True(t, cfg.MinioSSL)
	assert.Equal(t, int64(1048576), cfg.MaxUploadBytes)
	assert.Equal(t, "redis", cfg.RedisHost)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "/usr/local/bin/gltfpack", cfg.CompressorPath)
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MINIO_SSL", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("COMPRESSOR_PATH", "")
	t.Setenv("RABBITMQ_HOST", "")
	t.Setenv("RABBITMQ_USER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.MinioSSL)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "gltfpack", cfg.CompressorPath)
	assert.Equal(t, "localhost", cfg.RabbitHost)
	assert.Equal(t, "5672", cfg.RabbitPort)
	assert.Equal(t, "guest", cfg.RabbitUser)
	assert.Equal(t, "guest", cfg.RabbitPassword)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "")
	_, err := LoadConfig()
	assert.Error(t, err)

	setRequiredEnv(t)
	t.Setenv("MINIO_BUCKET", "")
	_, err = LoadConfig()
	assert.Error(t, err)

	setRequiredEnv(t)
	t.Setenv("JWT_SECRET", "")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigBadMinioSSL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MINIO_SSL", "not-a-bool")
	_, err := LoadConfig()
	assert.Error(t, err)
}
