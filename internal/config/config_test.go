package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "memory", cfg.Session.Store)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 500, cfg.Database.MaxDictations)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.AuthEnabled())
	assert.False(t, cfg.EmailEnabled())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	path := writeYAML(t, `
server:
  port: 9090
  base_url: "https://dictee.example.org"
database:
  type: postgres
  url: "postgres://u:p@localhost:5432/dictee"
session:
  store: redis
  ttl: "2h"
log:
  level: debug
  format: text
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "https://dictee.example.org", cfg.Server.BaseURL)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Database: DatabaseConfig{Type: "sqlite", MaxDictations: 10},
			Session:  SessionConfig{Store: "memory", TTL: time.Hour},
			Log:      LogConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"upper-case type", func(c *Config) { c.Database.Type = "SQLite" }, false},
		{"unknown database", func(c *Config) { c.Database.Type = "oracle" }, true},
		{"postgres without url", func(c *Config) { c.Database.Type = "postgres" }, true},
		{"zero quota", func(c *Config) { c.Database.MaxDictations = 0 }, true},
		{"unknown store", func(c *Config) { c.Session.Store = "memcached" }, true},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, true},
		{"password without secret", func(c *Config) { c.Auth.PasswordHash = "$2a$10$x" }, true},
		{"password with secret", func(c *Config) {
			c.Auth.PasswordHash = "$2a$10$x"
			c.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
		}, false},
		{"cloud token without hosts", func(c *Config) { c.Cloud.BearerToken = "t" }, true},
		{"cloud token with hosts", func(c *Config) {
			c.Cloud.BearerToken = "t"
			c.Cloud.TokenHosts = []string{"codimd.example.org"}
		}, false},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
