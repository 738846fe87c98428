package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no config.json or .env is picked up.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("APP_JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CACHE_PAGE_TTL_SECONDS", "45")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 45, cfg.CachePageTTLSeconds)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "/auth/login/", cfg.LoginURL)
	assert.Equal(t, "sessionid", cfg.SessionCookie)
	assert.True(t, cfg.CSRFEnabled)
	assert.Equal(t, cfg, Get())
}

func TestLoadRequiresSecret(t *testing.T) {
	chdirTemp(t)
	t.Setenv("APP_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestInitDatabaseSQLite(t *testing.T) {
	type widget struct {
		ID   uint
		Name string
	}
	cfg := AppConfig{DBDriver: "sqlite", DatabaseURI: "file::memory:", LogLevel: "silent"}

	db, err := InitDatabase(cfg, &widget{})
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&widget{}))

	_, err = InitDatabase(AppConfig{DBDriver: "oracle"})
	assert.Error(t, err)
}
