package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"OPSCONSOLE_APP_NAME":                os.Getenv("OPSCONSOLE_APP_NAME"),
		"OPSCONSOLE_APP_ENV":                 os.Getenv("OPSCONSOLE_APP_ENV"),
		"OPSCONSOLE_DATABASE_HOST":           os.Getenv("OPSCONSOLE_DATABASE_HOST"),
		"OPSCONSOLE_DATABASE_PORT":           os.Getenv("OPSCONSOLE_DATABASE_PORT"),
		"OPSCONSOLE_DATABASE_USER":           os.Getenv("OPSCONSOLE_DATABASE_USER"),
		"OPSCONSOLE_DATABASE_PASSWORD":       os.Getenv("OPSCONSOLE_DATABASE_PASSWORD"),
		"OPSCONSOLE_DATABASE_DBNAME":         os.Getenv("OPSCONSOLE_DATABASE_DBNAME"),
		"OPSCONSOLE_DATABASE_SSLMODE":        os.Getenv("OPSCONSOLE_DATABASE_SSLMODE"),
		"OPSCONSOLE_DATABASE_MAX_OPEN_CONNS": os.Getenv("OPSCONSOLE_DATABASE_MAX_OPEN_CONNS"),
		"OPSCONSOLE_DATABASE_MAX_IDLE_CONNS": os.Getenv("OPSCONSOLE_DATABASE_MAX_IDLE_CONNS"),
		"OPSCONSOLE_BRAIN_RIDGE_LAMBDA":      os.Getenv("OPSCONSOLE_BRAIN_RIDGE_LAMBDA"),
		"OPSCONSOLE_BRAIN_HOLDOUT_RESIDUE":   os.Getenv("OPSCONSOLE_BRAIN_HOLDOUT_RESIDUE"),
		"OPSCONSOLE_BRAIN_MODEL_CACHE_TTL":   os.Getenv("OPSCONSOLE_BRAIN_MODEL_CACHE_TTL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "opsconsole-brain", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "opsconsole", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 1.0, cfg.Brain.RidgeLambda)
		assert.Equal(t, 0, cfg.Brain.HoldoutResidue)
		assert.Equal(t, 5*time.Minute, cfg.Brain.ModelCacheTTL)
	})

	t.Run("loads values from environment variables with OPSCONSOLE prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("OPSCONSOLE_APP_NAME", "test-app")
		os.Setenv("OPSCONSOLE_APP_ENV", "testing")
		os.Setenv("OPSCONSOLE_DATABASE_HOST", "testdb.local")
		os.Setenv("OPSCONSOLE_DATABASE_PORT", "5433")
		os.Setenv("OPSCONSOLE_DATABASE_USER", "testuser")
		os.Setenv("OPSCONSOLE_DATABASE_PASSWORD", "testpass")
		os.Setenv("OPSCONSOLE_DATABASE_DBNAME", "testdb")
		os.Setenv("OPSCONSOLE_DATABASE_SSLMODE", "require")
		os.Setenv("OPSCONSOLE_BRAIN_RIDGE_LAMBDA", "2.5")
		os.Setenv("OPSCONSOLE_BRAIN_HOLDOUT_RESIDUE", "3")
		os.Setenv("OPSCONSOLE_BRAIN_MODEL_CACHE_TTL", "90s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 2.5, cfg.Brain.RidgeLambda)
		assert.Equal(t, 3, cfg.Brain.HoldoutResidue)
		assert.Equal(t, 90*time.Second, cfg.Brain.ModelCacheTTL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("OPSCONSOLE_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("OPSCONSOLE_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("OPSCONSOLE_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates holdout residue range", func(t *testing.T) {
		clearEnv()
		os.Setenv("OPSCONSOLE_BRAIN_HOLDOUT_RESIDUE", "7")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "holdout_residue")
	})

	t.Run("validates lambda cannot be negative", func(t *testing.T) {
		clearEnv()
		os.Setenv("OPSCONSOLE_BRAIN_RIDGE_LAMBDA", "-0.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ridge_lambda")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"OPSCONSOLE_APP_ENV":           os.Getenv("OPSCONSOLE_APP_ENV"),
		"OPSCONSOLE_DATABASE_PASSWORD": os.Getenv("OPSCONSOLE_DATABASE_PASSWORD"),
		"OPSCONSOLE_DATABASE_SSLMODE":  os.Getenv("OPSCONSOLE_DATABASE_SSLMODE"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("OPSCONSOLE_APP_ENV", "production")
		os.Setenv("OPSCONSOLE_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("OPSCONSOLE_APP_ENV", "production")
		os.Setenv("OPSCONSOLE_DATABASE_PASSWORD", "secure-password")
		os.Setenv("OPSCONSOLE_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		os.Setenv("OPSCONSOLE_APP_ENV", "production")
		os.Setenv("OPSCONSOLE_DATABASE_PASSWORD", "secure-password")
		os.Setenv("OPSCONSOLE_DATABASE_SSLMODE", "require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
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

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
