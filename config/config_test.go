package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Mode)
	assert.Equal(t, time.Hour, cfg.Database.MaxLife)
	assert.True(t, cfg.Catalog.RejectDuplicates)
	assert.Equal(t, 10, cfg.Catalog.PopularDefaultCount)
	assert.Equal(t, 30*time.Second, cfg.Catalog.PopularCacheTTL)
	assert.Equal(t, time.Minute, cfg.Catalog.PopularWarmupInterval)
	assert.Equal(t, 10, cfg.Catalog.PopularWarmupCount)
	assert.Equal(t, 100.0, cfg.Security.RateLimitRPS)
}

func TestLoad_File(t *testing.T) {
	path := writeYAML(t, `
server:
  port: 9090
  admin_key: secret
  admin_ips: ["127.0.0.1"]
database:
  mode: sqlite
  sqlite_path: /tmp/x.db
catalog:
  reject_duplicates: false
  popular_cache_ttl: 5s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Server.AdminKey)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.Server.AdminIPs)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
	assert.False(t, cfg.Catalog.RejectDuplicates)
	assert.Equal(t, 5*time.Second, cfg.Catalog.PopularCacheTTL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FILMORATE_DATABASE_MODE", "postgres")
	t.Setenv("FILMORATE_SERVER_PORT", "7070")

	cfg, err := Load(writeYAML(t, "database:\n  mode: sqlite\n"))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Mode)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_MalformedFile(t *testing.T) {
	_, err := Load(writeYAML(t, "server: [unclosed"))
	assert.Error(t, err)
}
