// Package config loads the table server configuration from an HCL file,
// optional .env files and BLACKJACK_* environment variables, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSessionTTL is how long a session cookie stays valid.
const DefaultSessionTTL = 31 * 24 * time.Hour

// Config represents the complete server configuration.
type Config struct {
	Server  ServerSettings
	Storage StorageSettings
	Rules   RulesSettings
	Session SessionSettings
}

// ServerSettings contains listener and logging configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional" env:"BLACKJACK_ADDRESS"`
	Port     int    `hcl:"port,optional" env:"BLACKJACK_PORT"`
	LogLevel string `hcl:"log_level,optional" env:"BLACKJACK_LOG_LEVEL"`
	LogFile  string `hcl:"log_file,optional" env:"BLACKJACK_LOG_FILE"`
}

// StorageSettings selects the account store.
type StorageSettings struct {
	Driver string `hcl:"driver,optional" env:"BLACKJACK_STORAGE_DRIVER"`
	Path   string `hcl:"path,optional" env:"BLACKJACK_SQLITE_PATH"`
	DSN    string `hcl:"dsn,optional" env:"BLACKJACK_POSTGRES_DSN"`
}

// RulesSettings are the table limits.
type RulesSettings struct {
	MinimumBet     int `hcl:"minimum_bet,optional" env:"BLACKJACK_MINIMUM_BET"`
	StartingTokens int `hcl:"starting_tokens,optional" env:"BLACKJACK_STARTING_TOKENS"`
}

// SessionSettings configures the signed session cookie. An empty secret
// leaves the choice to the caller, which may generate an ephemeral one.
type SessionSettings struct {
	Secret     string        `env:"BLACKJACK_SESSION_SECRET"`
	TTL        time.Duration `env:"BLACKJACK_SESSION_TTL"`
	Secure     bool          `env:"BLACKJACK_SECURE_COOKIES"`
	CookieName string        `env:"BLACKJACK_COOKIE_NAME"`
}

// fileConfig is the HCL layout. Every block is optional.
type fileConfig struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Storage *StorageSettings `hcl:"storage,block"`
	Rules   *RulesSettings   `hcl:"rules,block"`
	Session *sessionBlock    `hcl:"session,block"`
}

type sessionBlock struct {
	Secret     string `hcl:"secret,optional"`
	TTL        string `hcl:"ttl,optional"`
	Secure     bool   `hcl:"secure,optional"`
	CookieName string `hcl:"cookie_name,optional"`
}

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.Path == "" {
		c.Storage.Path = "blackjack.db"
	}
	if c.Rules.MinimumBet == 0 {
		c.Rules.MinimumBet = 1
	}
	if c.Rules.StartingTokens == 0 {
		c.Rules.StartingTokens = 1000
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "blackjack_session"
	}
}

// LoadFile loads configuration from an HCL file. A missing file yields the
// defaults.
func LoadFile(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	var cfg Config
	if fc.Server != nil {
		cfg.Server = *fc.Server
	}
	if fc.Storage != nil {
		cfg.Storage = *fc.Storage
	}
	if fc.Rules != nil {
		cfg.Rules = *fc.Rules
	}
	if s := fc.Session; s != nil {
		cfg.Session = SessionSettings{Secret: s.Secret, Secure: s.Secure, CookieName: s.CookieName}
		if s.TTL != "" {
			ttl, err := time.ParseDuration(s.TTL)
			if err != nil {
				return nil, fmt.Errorf("session ttl: %w", err)
			}
			cfg.Session.TTL = ttl
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// ApplyEnv overrides c with BLACKJACK_* variables. Variables read from the
// dotenv files fill in for anything the process environment lacks; missing
// dotenv files are skipped.
func (c *Config) ApplyEnv(dotenvFiles ...string) error {
	vars := make(map[string]string)
	for _, f := range dotenvFiles {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range m {
			vars[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	if err := env.ParseWithOptions(c, env.Options{Environment: vars}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	c.applyDefaults()
	return nil
}

// Load reads filename, applies the environment and validates the result.
func Load(filename string, dotenvFiles ...string) (*Config, error) {
	cfg, err := LoadFile(filename)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(dotenvFiles...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage: sqlite requires a path")
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage: postgres requires a dsn")
		}
	default:
		return fmt.Errorf("storage: unknown driver %q", c.Storage.Driver)
	}

	if c.Rules.MinimumBet < 1 {
		return fmt.Errorf("rules: minimum bet must be positive")
	}
	if c.Rules.StartingTokens < c.Rules.MinimumBet {
		return fmt.Errorf("rules: starting tokens must cover the minimum bet")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session: ttl must be positive")
	}
	if c.Session.Secret != "" && len(c.Session.Secret) < 16 {
		return fmt.Errorf("session: secret must be at least 16 bytes")
	}
	return nil
}

// ServerAddress returns the full listen address.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
