package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "root", cfg.Database.User)
	assert.Equal(t, "expense_tracker", cfg.Database.Name)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 24*60, cfg.Auth.TokenTTLMinutes)
	assert.False(t, cfg.Auth.RequireToken)
	assert.Empty(t, cfg.Storage.Bucket)
	assert.Equal(t, 15, cfg.Storage.URLTTLMinutes)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_USER", "tracker")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_NAME", "expenses")
	t.Setenv("AUTH_REQUIRE_TOKEN", "true")
	t.Setenv("STORAGE_BUCKET", "exports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, "tracker", cfg.Database.User)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "expenses", cfg.Database.Name)
	assert.True(t, cfg.Auth.RequireToken)
	assert.Equal(t, "exports", cfg.Storage.Bucket)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
