package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"STOCK_APP_NAME",
	"STOCK_APP_ENV",
	"STOCK_APP_PORT",
	"STOCK_DATABASE_DRIVER",
	"STOCK_DATABASE_HOST",
	"STOCK_DATABASE_PORT",
	"STOCK_DATABASE_USER",
	"STOCK_DATABASE_PASSWORD",
	"STOCK_DATABASE_DBNAME",
	"STOCK_DATABASE_SSLMODE",
	"STOCK_DATABASE_SQLITE_PATH",
	"STOCK_DATABASE_MAX_OPEN_CONNS",
	"STOCK_DATABASE_MAX_IDLE_CONNS",
	"STOCK_DATABASE_AUTO_MIGRATE",
	"STOCK_ENGINE_ENFORCE_VENDOR_CATALOG",
	"STOCK_ENGINE_LOCK_TIMEOUT",
	"STOCK_REDIS_HOST",
	"STOCK_TELEMETRY_SAMPLING_RATIO",
	"STOCK_TELEMETRY_DB_LOG_FULL_SQL",
}

// clearEnv blanks every key for the duration of the test. Viper ignores
// empty environment values, so blank behaves like unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "stockengine", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "stockengine", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 5*time.Second, cfg.Engine.LockTimeout)
		assert.False(t, cfg.Engine.EnforceVendorCatalog)
		assert.False(t, cfg.Redis.Enabled())
	})

	t.Run("loads values from environment variables with STOCK prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STOCK_APP_NAME", "test-app")
		t.Setenv("STOCK_APP_ENV", "testing")
		t.Setenv("STOCK_APP_PORT", "9000")
		t.Setenv("STOCK_DATABASE_HOST", "testdb.local")
		t.Setenv("STOCK_DATABASE_PORT", "5433")
		t.Setenv("STOCK_DATABASE_USER", "testuser")
		t.Setenv("STOCK_DATABASE_PASSWORD", "testpass")
		t.Setenv("STOCK_DATABASE_DBNAME", "testdb")
		t.Setenv("STOCK_DATABASE_SSLMODE", "require")
		t.Setenv("STOCK_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("STOCK_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("STOCK_ENGINE_ENFORCE_VENDOR_CATALOG", "true")
		t.Setenv("STOCK_ENGINE_LOCK_TIMEOUT", "2s")
		t.Setenv("STOCK_REDIS_HOST", "cache.local")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Engine.EnforceVendorCatalog)
		assert.Equal(t, 2*time.Second, cfg.Engine.LockTimeout)
		assert.True(t, cfg.Redis.Enabled())
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
	})

	t.Run("accepts sqlite driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STOCK_DATABASE_DRIVER", "sqlite")
		t.Setenv("STOCK_DATABASE_SQLITE_PATH", "/tmp/engine.db")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, "/tmp/engine.db", cfg.Database.DSN())
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STOCK_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STOCK_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("STOCK_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STOCK_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STOCK_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("validates sampling ratio range", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STOCK_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STOCK_APP_ENV", "production")
		t.Setenv("STOCK_DATABASE_PASSWORD", "secure-password")
		t.Setenv("STOCK_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("STOCK_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("STOCK_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects sqlite in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("STOCK_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite is not supported in production")
	})

	t.Run("rejects auto migrate in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("STOCK_DATABASE_AUTO_MIGRATE", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auto_migrate")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("STOCK_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("sqlite DSN is the path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: DriverSQLite, SQLitePath: "file::memory:?cache=shared"}
		assert.Equal(t, "file::memory:?cache=shared", cfg.DSN())
	})
}
