package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader reads so the host environment
// does not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SESSION_SECRET", "SECRET_KEY", "FLASK_ENV", "APP_ENV", "FLASK_DEBUG", "LOG_LEVEL",
		"HOST", "PORT", "DATA_FILE", "STATIC_DIR", "CONTENT_SECURITY_POLICY",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "PPROF_ADDR", "SHUTDOWN_TIMEOUT",
		"UPDATE_FILE", "UPDATE_INTERVAL",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, DefaultSecretKey, cfg.SecretKey)
	assert.True(t, cfg.SecretDefaulted)
	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.Debug)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
	assert.Equal(t, "static/data/servers.json", cfg.DataFile)
	assert.Equal(t, "static", cfg.StaticDir)
	assert.Equal(t, DefaultContentSecurityPolicy, cfg.ContentSecurityPolicy)
	assert.False(t, cfg.RateLimitEnabled())
	assert.Equal(t, DefaultRateLimitBurst, cfg.RateLimitBurst)
	assert.Empty(t, cfg.PprofAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, ".update", cfg.UpdateFile)
	assert.Equal(t, time.Minute, cfg.UpdateInterval)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("FLASK_ENV", "staging")
	t.Setenv("FLASK_DEBUG", "True")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8081")
	t.Setenv("DATA_FILE", "/srv/servers.json")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "4")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.False(t, cfg.SecretDefaulted)
	assert.Equal(t, "staging", cfg.Env)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:8081", cfg.Addr())
	assert.Equal(t, "/srv/servers.json", cfg.DataFile)
	assert.True(t, cfg.RateLimitEnabled())
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 4, cfg.RateLimitBurst)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_SecretAliasAndEnvAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "from-alias")
	t.Setenv("APP_ENV", "Production")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.Equal(t, "from-alias", cfg.SecretKey)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_DebugOnlyAcceptsTrue(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLASK_DEBUG", "1")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.False(t, cfg.Debug)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	for _, env := range []string{"production", "PRODUCTION", " Production "} {
		t.Run(env, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("FLASK_ENV", env)

			cfg, err := Load(NewViper())
			require.ErrorIs(t, err, ErrMissingSecret)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLASK_ENV", "production")
	t.Setenv("SESSION_SECRET", "prod-secret")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.SecretDefaulted)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"port not a number":  {"PORT": "http"},
		"port zero":          {"PORT": "0"},
		"port too large":     {"PORT": "70000"},
		"bad rps":            {"RATE_LIMIT_RPS": "fast"},
		"bad burst":          {"RATE_LIMIT_BURST": "many"},
		"zero burst":         {"RATE_LIMIT_RPS": "1", "RATE_LIMIT_BURST": "0"},
		"bad timeout":        {"SHUTDOWN_TIMEOUT": "soon"},
		"non positive delay": {"SHUTDOWN_TIMEOUT": "0s"},
		"bad interval":       {"UPDATE_INTERVAL": "often"},
		"zero interval":      {"UPDATE_INTERVAL": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, val := range env {
				t.Setenv(k, val)
			}
			_, err := Load(NewViper())
			assert.Error(t, err)
		})
	}
}

func TestLoad_ExplicitOverridesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")

	v := NewViper()
	v.Set("port", 9090)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoad_UpdateFileOff(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPDATE_FILE", "off")
	t.Setenv("UPDATE_INTERVAL", "0s")

	cfg, err := Load(NewViper())
	require.NoError(t, err)
	assert.Empty(t, cfg.UpdateFile)
}
