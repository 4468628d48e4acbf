package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", DriverMemory)
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_AUTO_MIGRATE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 3*time.Hour, cfg.SessionTTL)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.False(t, cfg.AutoMigrate)
}

func TestLoadAutoMigrate(t *testing.T) {
	t.Setenv("STORE_DRIVER", DriverMemory)
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AutoMigrate)
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	t.Run("postgres needs a url", func(t *testing.T) {
		cfg := Config{AppEnv: "dev", StoreDriver: DriverPostgres, SessionTTL: time.Hour}
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := Config{AppEnv: "dev", StoreDriver: "sqlite", SessionTTL: time.Hour}
		assert.Error(t, cfg.Validate())
	})

	t.Run("secret required in production", func(t *testing.T) {
		cfg := Config{AppEnv: "production", StoreDriver: DriverMemory, SessionTTL: time.Hour}
		assert.Error(t, cfg.Validate())
	})

	t.Run("memory in dev", func(t *testing.T) {
		cfg := Config{AppEnv: "dev", StoreDriver: DriverMemory, SessionTTL: time.Hour}
		assert.NoError(t, cfg.Validate())
	})
}
