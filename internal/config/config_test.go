package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Second, cfg.Database.PingTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Auth.SignatureWindow)
	assert.True(t, cfg.Auth.RequireSignature, "payments must be signed unless explicitly relaxed")
	assert.Equal(t, 800, cfg.Commission.DefaultPlatformFeeBps)
	assert.Equal(t, 9000, cfg.Commission.MaxTotalFeeBps)
	assert.False(t, cfg.Formance.Enabled)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/test.db")
	t.Setenv("SERVER_MAX_CONNECTIONS", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("PAYMENT_REQUIRE_SIGNATURE", "false")
	t.Setenv("PAYMENT_RATE_LIMIT", "2.5")
	t.Setenv("RECONCILER_INTERVAL", "10m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Server.MaxConnections)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Auth.RequireSignature)
	assert.Equal(t, 2.5, cfg.Server.PaymentRateLimit)
	assert.Equal(t, 10*time.Minute, cfg.Reconciler.Interval)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("DB_PING_TIMEOUT", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "DB_PING_TIMEOUT")

	t.Setenv("DB_PING_TIMEOUT", "")
	t.Setenv("PAYMENT_RATE_LIMIT", "fast")
	_, err = Load()
	assert.ErrorContains(t, err, "PAYMENT_RATE_LIMIT")
}
