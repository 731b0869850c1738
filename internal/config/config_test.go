package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "STORE_DRIVER", "DATABASE_URL", "SQLITE_PATH", "PG_MAX_CONNS", "PG_MIN_CONNS",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "SHORT_CODE_LENGTH", "SHORTEN_MAX_ATTEMPTS",
	"SHORTEN_RETRY_ON_CONFLICT", "CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, c.Server.Port)
	assert.Equal(t, DriverSQLite, c.Store.Driver)
	assert.Equal(t, "./urls.db", c.Store.SQLitePath)
	assert.Equal(t, 6, c.Shortener.CodeLength)
	assert.Equal(t, 0, c.Shortener.MaxAttempts)
	assert.False(t, c.Shortener.RetryOnConflict)
	assert.Equal(t, []string{"*"}, c.CORS.AllowedOrigins)
	assert.Equal(t, ":8000", c.Addr())
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/urls?sslmode=disable")
	t.Setenv("PG_MAX_CONNS", "20")
	t.Setenv("SHORT_CODE_LENGTH", "8")
	t.Setenv("SHORTEN_MAX_ATTEMPTS", "50")
	t.Setenv("SHORTEN_RETRY_ON_CONFLICT", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_FORMAT", "json")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, DriverPostgres, c.Store.Driver)
	assert.Equal(t, int32(20), c.Postgres.MaxConns)
	assert.Equal(t, 8, c.Shortener.CodeLength)
	assert.Equal(t, 50, c.Shortener.MaxAttempts)
	assert.True(t, c.Shortener.RetryOnConflict)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORS.AllowedOrigins)
	assert.Equal(t, "json", c.Log.Format)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 7000
  read_timeout: 2s
store:
  driver: redis
redis:
  addr: localhost:6379
  db: 3
shortener:
  code_length: 7
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	t.Setenv("REDIS_DB", "5")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, c.Server.Port)
	assert.Equal(t, 2*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, c.Server.WriteTimeout)
	assert.Equal(t, DriverRedis, c.Store.Driver)
	assert.Equal(t, "localhost:6379", c.Redis.Addr)
	assert.Equal(t, 5, c.Redis.DB)
	assert.Equal(t, 7, c.Shortener.CodeLength)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"PORT": "http"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mysql"}},
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres"}},
		{"redis without addr", map[string]string{"STORE_DRIVER": "redis"}},
		{"code too short", map[string]string{"SHORT_CODE_LENGTH": "2"}},
		{"negative attempts", map[string]string{"SHORTEN_MAX_ATTEMPTS": "-1"}},
		{"bad bool", map[string]string{"SHORTEN_RETRY_ON_CONFLICT": "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
