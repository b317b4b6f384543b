// Package config loads server configuration from TOML with environment
// overrides.
//
// Precedence, lowest to highest: built-in defaults, the config file,
// TACKLE_* environment variables, command-line flags (applied by the
// CLI, not here). Every backend section is optional; with an empty
// config the server runs fully in-memory, which is the development
// mode.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Mongo  MongoConfig  `toml:"mongo"`
	Redis  RedisConfig  `toml:"redis"`
	Auth   AuthConfig   `toml:"auth"`
	Cache  CacheConfig  `toml:"cache"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `toml:"addr"`

	// BaseURL is the public URL clients reach the server under. The
	// OAuth redirect URI is derived from it when not set explicitly.
	BaseURL string `toml:"base_url"`

	// NoAuth serves everything under a fixed local identity. Development
	// only; never set this on a reachable deployment.
	NoAuth bool `toml:"no_auth"`
}

// MongoConfig configures document storage. An empty URI selects the
// in-memory stores.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// RedisConfig configures sessions and the shared cache. An empty Addr
// selects the in-memory session store and the file cache.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// AuthConfig configures the identity provider.
type AuthConfig struct {
	// Provider is "github" or "static".
	Provider     string `toml:"provider"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// CacheConfig configures the byte cache used for dashboard summaries
// and rendered artifacts.
type CacheConfig struct {
	// Dir is the file cache directory. Empty means ~/.cache/tackle/.
	// Ignored when Redis is configured.
	Dir string `toml:"dir"`

	// Disabled turns caching off entirely.
	Disabled bool `toml:"disabled"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", BaseURL: "http://localhost:8080"},
		Mongo:  MongoConfig{Database: "tackle"},
		Auth:   AuthConfig{Provider: "github"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// DefaultPath returns the conventional config file location,
// ~/.config/tackle/config.toml. The file does not have to exist.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tackle", "config.toml")
}

// Load reads the configuration: defaults, then the TOML file at path,
// then environment overrides. An empty path falls back to DefaultPath;
// a missing file is not an error, only an unreadable or invalid one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults only.
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays TACKLE_* environment variables. Only variables that
// are set override the file.
func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "TACKLE_ADDR")
	setString(&c.Server.BaseURL, "TACKLE_BASE_URL")
	setBool(&c.Server.NoAuth, "TACKLE_NO_AUTH")
	setString(&c.Mongo.URI, "TACKLE_MONGO_URI")
	setString(&c.Mongo.Database, "TACKLE_MONGO_DATABASE")
	setString(&c.Redis.Addr, "TACKLE_REDIS_ADDR")
	setString(&c.Redis.Password, "TACKLE_REDIS_PASSWORD")
	setString(&c.Auth.Provider, "TACKLE_AUTH_PROVIDER")
	setString(&c.Auth.ClientID, "TACKLE_GITHUB_CLIENT_ID")
	setString(&c.Auth.ClientSecret, "TACKLE_GITHUB_CLIENT_SECRET")
	setString(&c.Auth.RedirectURI, "TACKLE_REDIRECT_URI")
	setString(&c.Cache.Dir, "TACKLE_CACHE_DIR")
	setBool(&c.Cache.Disabled, "TACKLE_NO_CACHE")
	setString(&c.Log.Level, "TACKLE_LOG_LEVEL")
	setString(&c.Log.Format, "TACKLE_LOG_FORMAT")
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	switch c.Auth.Provider {
	case "github", "static":
	default:
		return fmt.Errorf("auth.provider must be github or static, got %q", c.Auth.Provider)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// RedirectURI returns the configured OAuth redirect URI, deriving it
// from the base URL when unset.
func (c *Config) RedirectURI() string {
	if c.Auth.RedirectURI != "" {
		return c.Auth.RedirectURI
	}
	return c.Server.BaseURL + "/api/v1/auth/callback"
}

func setString(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok {
		*dst = v
	}
}

func setBool(dst *bool, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}
