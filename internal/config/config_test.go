package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "localhost:8080", cfg.ServerAddress())
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 1, cfg.Rules.MinimumBet)
	assert.Equal(t, 1000, cfg.Rules.StartingTokens)
	assert.Equal(t, DefaultSessionTTL, cfg.Session.TTL)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "blackjack.hcl", `
server {
  address   = "0.0.0.0"
  port      = 9000
  log_level = "debug"
}

storage {
  driver = "postgres"
  dsn    = "postgres://localhost/blackjack"
}

rules {
  minimum_bet     = 5
  starting_tokens = 500
}

session {
  secret = "0123456789abcdef0123"
  ttl    = "24h"
  secure = true
}
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.ServerAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/blackjack", cfg.Storage.DSN)
	assert.Empty(t, cfg.Storage.Path)
	assert.Equal(t, 5, cfg.Rules.MinimumBet)
	assert.Equal(t, 500, cfg.Rules.StartingTokens)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Session.Secure)
	assert.Equal(t, "blackjack_session", cfg.Session.CookieName)
	require.NoError(t, cfg.Validate())
}

func TestLoadFilePartialBlocks(t *testing.T) {
	path := writeFile(t, "blackjack.hcl", `
rules {
  minimum_bet = 10
}
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Rules.MinimumBet)
	assert.Equal(t, 1000, cfg.Rules.StartingTokens)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "blackjack.db", cfg.Storage.Path)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `server {`},
		{"unknown attribute", `server { colour = "red" }`},
		{"bad ttl", `session { ttl = "forever" }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, "bad.hcl", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BLACKJACK_PORT", "9100")
	t.Setenv("BLACKJACK_STORAGE_DRIVER", "memory")
	t.Setenv("BLACKJACK_SESSION_TTL", "2h")
	t.Setenv("BLACKJACK_SECURE_COOKIES", "true")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Address)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Session.Secure)
}

func TestApplyEnvDotenv(t *testing.T) {
	t.Setenv("BLACKJACK_MINIMUM_BET", "25")
	dotenv := writeFile(t, ".env", "BLACKJACK_MINIMUM_BET=50\nBLACKJACK_STARTING_TOKENS=5000\n")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(dotenv, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, 25, cfg.Rules.MinimumBet, "process environment wins")
	assert.Equal(t, 5000, cfg.Rules.StartingTokens)

	_, ok := os.LookupEnv("BLACKJACK_STARTING_TOKENS")
	assert.False(t, ok, "dotenv values do not leak into the process")
}

func TestApplyEnvRejectsBadValue(t *testing.T) {
	t.Setenv("BLACKJACK_PORT", "eighty")
	assert.Error(t, Default().ApplyEnv())
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "blackjack.hcl", `server { port = 7000 }`)
	t.Setenv("BLACKJACK_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Server.LogLevel)

	t.Setenv("BLACKJACK_LOG_LEVEL", "loud")
	_, err = Load(path)
	assert.ErrorContains(t, err, "invalid log level")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }, "invalid port"},
		{"driver", func(c *Config) { c.Storage.Driver = "redis" }, "unknown driver"},
		{"sqlite path", func(c *Config) { c.Storage.Path = "" }, "requires a path"},
		{"postgres dsn", func(c *Config) { c.Storage.Driver = DriverPostgres }, "requires a dsn"},
		{"minimum bet", func(c *Config) { c.Rules.MinimumBet = -1 }, "minimum bet"},
		{"starting tokens", func(c *Config) { c.Rules.MinimumBet = 2000 }, "starting tokens"},
		{"ttl", func(c *Config) { c.Session.TTL = -time.Second }, "ttl"},
		{"short secret", func(c *Config) { c.Session.Secret = "short" }, "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
