package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("HTTP_ADDR", "127.0.0.1:8080")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("DATABASE_URL", "sqlite://"+t.TempDir()+"/dynprot.db")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setBaseEnv(t)

	c, err := Load()
	require.NoError(t, err)

	require.Equal(t, 15*time.Second, c.ShutdownTimeout)
	require.Equal(t, 60*time.Second, c.LLMTimeout)
	require.Equal(t, 24*time.Hour, c.UploadRetention)
	require.Equal(t, int64(10<<20), c.UploadMaxBytes)
	require.Equal(t, "gpt-4", c.OpenAIModel)
	require.Equal(t, "gpt-4o", c.OpenAIVisionModel)
	require.False(t, c.AllowLegacyUserID)
	require.False(t, c.TrustProxyHeaders)
	require.Equal(t, time.UTC, c.Location())
	require.Equal(t, []string{"*"}, c.Origins())
}

func TestLoadReadsEnvironment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SHUTDOWN_TIMEOUT", "2s")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("TIMEZONE", "Europe/Paris")
	t.Setenv("AUTH_ALLOW_LEGACY_USER_ID", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://app.dynprot.fr")
	t.Setenv("RATE_LIMIT_RPS", "1.5")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	c, err := Load()
	require.NoError(t, err)

	require.Equal(t, 2*time.Second, c.ShutdownTimeout)
	require.Equal(t, 5*time.Second, c.LLMTimeout)
	require.Equal(t, "Europe/Paris", c.Location().String())
	require.True(t, c.AllowLegacyUserID)
	require.Equal(t, []string{"http://localhost:3000", "https://app.dynprot.fr"}, c.Origins())
	require.InDelta(t, 1.5, c.RateLimitRPS, 0.0001)
	require.True(t, c.TrustProxyHeaders)
	require.Same(t, c, Get())
}

func TestLoadRejectsProductionWithoutSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")

	_, err := Load()
	require.Error(t, err)
}
