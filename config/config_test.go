package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "contacts.db", cfg.Store.SQLite.Path)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 30*time.Second, cfg.Cache.RefillTTL)
	assert.False(t, cfg.Cache.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "contacts.yaml", `
log:
  env: development
store:
  driver: postgres
  postgres:
    url: postgres://u:p@db:5432/contacts?sslmode=disable
    max_conns: 8
    ping_timeout: 2s
cache:
  redis:
    addr: redis:6379
  ttl: 30s
export:
  bucket: contacts-backup
  prefix: nightly/
  path_style: true
retry:
  max_elapsed: 1m
  max_tries: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Log.Env)
	assert.Equal(t, "contactctl", cfg.Log.Service, "unset keys keep defaults")
	assert.Equal(t, DriverPostgres, cfg.Store.DriverName())
	assert.EqualValues(t, 8, cfg.Store.Postgres.MaxConns)
	assert.Equal(t, 2*time.Second, cfg.Store.Postgres.PingTimeout)
	assert.True(t, cfg.Cache.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "contacts:", cfg.Cache.Prefix)
	assert.Equal(t, "nightly/", cfg.Export.Prefix)
	assert.True(t, cfg.Export.PathStyle)
	assert.Equal(t, time.Minute, cfg.Retry.MaxElapsed)
	assert.EqualValues(t, 4, cfg.Retry.MaxTries)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingAndEmptyFiles(t *testing.T) {
	cfg, err := Load("/nonexistent/contacts.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)

	dir := t.TempDir()
	cfg, err = Load(writeFile(t, dir, "empty.yaml", "\n\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)

	cfg, err = Load(writeFile(t, dir, "comments.yaml", "# nothing here\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "store:\n  drvier: memory\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: parsing")
	assert.Contains(t, err.Error(), "drvier")
}

func TestLoadLayered_LaterWins(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.yaml", `
store:
  driver: sqlite
  sqlite:
    path: /var/lib/contacts/base.db
export:
  bucket: base-bucket
  region: eu-west-1
`)
	local := writeFile(t, dir, "local.yaml", `
store:
  sqlite:
    path: ./local.db
export:
  bucket: local-bucket
`)

	cfg, err := LoadLayered(base, filepath.Join(dir, "missing.yaml"), local)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "./local.db", cfg.Store.SQLite.Path)
	assert.Equal(t, "local-bucket", cfg.Export.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Export.Region)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CONTACTS_STORE_DRIVER", "memory")
	t.Setenv("CONTACTS_REDIS_ADDR", "localhost:6380")
	t.Setenv("CONTACTS_CACHE_TTL", "90s")
	t.Setenv("CONTACTS_EXPORT_BUCKET", "env-bucket")
	t.Setenv("CONTACTS_ENV", "development")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "localhost:6380", cfg.Cache.Redis.Addr)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "env-bucket", cfg.Export.Bucket)
	assert.Equal(t, "development", cfg.Log.Env)
}

func TestApplyEnv_InvalidTTL(t *testing.T) {
	t.Setenv("CONTACTS_CACHE_TTL", "soon")

	cfg := DefaultConfig()
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONTACTS_CACHE_TTL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad env", func(c *Config) { c.Log.Env = "staging" }, "log.env"},
		{"bad driver", func(c *Config) { c.Store.Driver = "mongo" }, "store.driver"},
		{"sqlite without path", func(c *Config) { c.Store.SQLite.Path = "" }, "store.sqlite.path"},
		{"postgres without url", func(c *Config) { c.Store.Driver = "Postgres" }, "store.postgres"},
		{"cache bad mode", func(c *Config) { c.Cache.Redis.Addr = "r:1"; c.Cache.Redis.Mode = "ring" }, "cache.redis"},
		{"cache zero ttl", func(c *Config) { c.Cache.Redis.Addr = "r:1"; c.Cache.TTL = 0 }, "cache.ttl"},
		{"cache negative refill ttl", func(c *Config) { c.Cache.Redis.Addr = "r:1"; c.Cache.RefillTTL = -time.Second }, "cache.refill_ttl"},
		{"negative retry", func(c *Config) { c.Retry.MaxElapsed = -time.Second }, "retry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}

	cfg := DefaultConfig()
	cfg.Store.Driver = " MEMORY "
	assert.NoError(t, cfg.Validate())
}
