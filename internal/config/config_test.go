package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("ACCESS_TOKEN_TTL", "45m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 45*time.Minute, cfg.Auth.TokenTTL)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, StorePostgres, cfg.StoreBackend)
	assert.Equal(t, PayloadDatabase, cfg.PayloadBackend)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "access_token", cfg.Auth.CookieName)
	assert.Equal(t, "dev-encryption-key-change-this-32b", cfg.Encryption.Key)
	assert.False(t, cfg.Encryption.RequireFullKey)
	assert.Equal(t, time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 15, cfg.RateLimit.PerWindow())
	assert.Equal(t, "briefcase", cfg.Tracing.ServiceName)
	assert.Equal(t, "grpc", cfg.Tracing.Protocol)
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "store backend", key: "STORE_BACKEND", val: "sqlite"},
		{name: "payload backend", key: "PAYLOAD_BACKEND", val: "s3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestMustLoadPanics(t *testing.T) {
	t.Setenv("STORE_BACKEND", "nope")
	assert.Panics(t, func() { MustLoad() })
}

func TestLocation(t *testing.T) {
	cfg := &AppConfig{Timezone: "Local"}
	assert.Equal(t, time.Local, cfg.Location())

	cfg.Timezone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())
}
