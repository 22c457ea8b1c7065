package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, 15*time.Second, cfg.HTTPReadTimeout)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, 6, cfg.MaxDeepSubordinates)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL)
	require.Equal(t, "media", cfg.MediaDir)
	require.Empty(t, cfg.RedisAddr)
	require.Equal(t, "app:pw@tcp(localhost:3306)/orgchart?parseTime=true", cfg.DSN())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MAX_DEEP_SUBORDINATES", "3")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 3, cfg.MaxDeepSubordinates)
	require.Equal(t, 90*time.Minute, cfg.TokenTTL)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsNonPositiveDepth(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("MAX_DEEP_SUBORDINATES", "0")

	_, err := Load()
	require.Error(t, err)
}
