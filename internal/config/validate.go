package config

import (
	"fmt"
	"slices"
	"strings"
)

var (
	databaseTypes = []string{"sqlite", "sqlite3", "postgres", "postgresql", "mysql"}
	sessionStores = []string{"memory", "redis"}
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"json", "text"}
)

// Validate checks enumerations and cross-field rules. Load calls it.
func (c *Config) Validate() error {
	c.Database.Type = strings.ToLower(c.Database.Type)
	if !slices.Contains(databaseTypes, c.Database.Type) {
		return fmt.Errorf("database.type must be one of %v (got %q)", databaseTypes, c.Database.Type)
	}
	if c.Database.Type != "sqlite" && c.Database.Type != "sqlite3" && c.Database.URL == "" {
		return fmt.Errorf("database.url is required for %s", c.Database.Type)
	}
	if c.Database.MaxDictations <= 0 {
		return fmt.Errorf("database.max_dictations must be > 0 (got %d)", c.Database.MaxDictations)
	}

	if !slices.Contains(sessionStores, c.Session.Store) {
		return fmt.Errorf("session.store must be one of %v (got %q)", sessionStores, c.Session.Store)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be > 0 (got %v)", c.Session.TTL)
	}

	if c.AuthEnabled() && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters when a password is set (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Cloud.BearerToken != "" && len(c.Cloud.TokenHosts) == 0 {
		return fmt.Errorf("cloud.token_hosts is required when cloud.bearer_token is set")
	}

	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of %v (got %q)", logLevels, c.Log.Level)
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("log.format must be one of %v (got %q)", logFormats, c.Log.Format)
	}

	return nil
}

// Addr returns the listen address of the HTTP server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
