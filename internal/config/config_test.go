package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STATIC_EMAIL", "")
	t.Setenv("STATIC_PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "sundar", cfg.Auth.DisplayName)
	assert.False(t, cfg.Auth.Enabled())
	assert.Equal(t, 10*time.Millisecond, cfg.Chat.TickInterval)
	assert.Equal(t, 5*1024*1024, cfg.Chat.StorageQuota)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadCredentialsAndOrigins(t *testing.T) {
	t.Setenv("STATIC_EMAIL", " admin@haiintel.com ")
	t.Setenv("STATIC_PASSWORD", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://haiintel.com")
	t.Setenv("CHAT_TICK_INTERVAL", "25ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "admin@haiintel.com", cfg.Auth.Email)
	assert.True(t, cfg.Auth.Enabled())
	assert.Equal(t, []string{"http://localhost:3000", "https://haiintel.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 25*time.Millisecond, cfg.Chat.TickInterval)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("duration", func(t *testing.T) {
		t.Setenv("CHAT_TICK_INTERVAL", "soon")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("zero interval", func(t *testing.T) {
		t.Setenv("CHAT_TICK_INTERVAL", "0s")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("port with spaces", func(t *testing.T) {
		t.Setenv("PORT", "80 80")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("negative quota", func(t *testing.T) {
		t.Setenv("CHAT_STORAGE_QUOTA", "-1")
		_, err := Load()
		require.Error(t, err)
	})
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ":8080"},
		{"9000", ":9000"},
		{":9000", ":9000"},
		{"127.0.0.1:9000", "127.0.0.1:9000"},
	}
	for _, tt := range tests {
		got, err := serverAddr(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
