package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "data/polito.db", cfg.Database.Path)
	assert.Equal(t, "HS256", cfg.Auth.JWTAlgorithm)
	assert.Equal(t, 60*24*7, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, 15, cfg.Auth.LinkTTLMinutes)
	assert.Equal(t, "http://localhost:5173", cfg.Frontend.BaseURL)
	assert.Equal(t, "console", cfg.Email.Provider)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POLITO_SERVER_ADDR", "127.0.0.1:9090")
	t.Setenv("POLITO_AUTH_JWTSECRET", "from-env")
	t.Setenv("POLITO_AUTH_LINKTTLMINUTES", "5")
	t.Setenv("POLITO_EMAIL_PROVIDER", "ses")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 5, cfg.Auth.LinkTTLMinutes)
	assert.Equal(t, "ses", cfg.Email.Provider)
}
