package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Database.MaxRetries)
	assert.Equal(t, 30, cfg.Database.MaxRetryDelaySeconds)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "/UploadedFiles", cfg.Storage.URLPrefix)
	assert.Equal(t, 4000, cfg.RequestLog.MaxBodyChars)
	assert.Equal(t, "1.0.0", cfg.App.Version)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Empty(t, cfg.Server.TrustedProxies)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CLIENTS_DATABASE_DRIVER", "sqlite")
	t.Setenv("CLIENTS_DATABASE_DSN", "file:test.db")
	t.Setenv("CLIENTS_SERVER_PORT", "9090")
	t.Setenv("CLIENTS_REQUEST_LOG_MAX_BODY_CHARS", "128")
	t.Setenv("CLIENTS_SERVER_TRUSTED_PROXIES", "10.0.0.1,10.0.0.0/8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 128, cfg.RequestLog.MaxBodyChars)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.0/8"}, cfg.Server.TrustedProxies)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Database:   DatabaseConfig{Driver: "postgres"},
			Storage:    StorageConfig{Backend: "local", UploadDir: "./up", URLPrefix: "/UploadedFiles"},
			RequestLog: RequestLogConfig{MaxBodyChars: 10},
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Database.Driver = "mssql"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Storage.Backend = "minio"
	assert.EqualError(t, cfg.Validate(), "minio configuration incomplete")

	cfg = base()
	cfg.Storage.URLPrefix = "UploadedFiles"
	assert.Error(t, cfg.Validate())
}
