package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/profiles")
	t.Setenv("JWT_SECRET", "dev")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, "app.events", cfg.EventsExchange)
	assert.Equal(t, "logs.events", cfg.LogsExchange)
	assert.Equal(t, "profile-service", cfg.ServiceName)
	assert.Equal(t, 5*time.Minute, cfg.BadgeCacheTTL)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/profiles")
	t.Setenv("AUTH0_DOMAIN", "tenant.eu.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.example")
	t.Setenv("BADGE_CACHE_TTL", "30s")
	t.Setenv("DB_MAX_OPEN_CONNS", "10")
	t.Setenv("DB_MAX_IDLE_CONNS", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tenant.eu.auth0.com", cfg.Auth0Domain)
	assert.Equal(t, 30*time.Second, cfg.BadgeCacheTTL)
	assert.Equal(t, 10, cfg.DBMaxOpenConns)
}

func TestValidate(t *testing.T) {
	base := Config{
		DatabaseDSN:     "postgres://x",
		JWTSecret:       "s",
		DBMaxOpenConns:  4,
		DBMaxIdleConns:  2,
		ShutdownTimeout: time.Second,
	}
	require.NoError(t, base.Validate())

	noDSN := base
	noDSN.DatabaseDSN = ""
	assert.Error(t, noDSN.Validate())

	noAuth := base
	noAuth.JWTSecret = ""
	assert.Error(t, noAuth.Validate())

	badPool := base
	badPool.DBMaxIdleConns = 10
	assert.Error(t, badPool.Validate())
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/profiles")
	t.Setenv("JWT_SECRET", "dev")
	t.Setenv("BADGE_CACHE_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}
