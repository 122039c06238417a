// Package config loads and validates the YAML configuration.
// It applies defaults so the server can rely on fully populated values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/astaXmjy/s3BucMg/internal/access"
)

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// SQLiteConfig holds the local store settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// DynamoConfig holds the DynamoDB store settings.
type DynamoConfig struct {
	Table           string `yaml:"table"`
	Region          string `yaml:"region"`
	CredentialsFile string `yaml:"credentials_file"`
	Profile         string `yaml:"profile"`
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	Backend string       `yaml:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Dynamo  DynamoConfig `yaml:"dynamo"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// AuthConfig holds token settings. The secret lives in its own file
// so the config can be world-readable.
type AuthConfig struct {
	JWTSecretFile string `yaml:"jwt_secret_file"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

// Config mirrors the s3bucmg.yaml schema.
type Config struct {
	Log   LogConfig   `yaml:"log"`
	Store StoreConfig `yaml:"store"`
	HTTP  HTTPConfig  `yaml:"http"`
	Auth  AuthConfig  `yaml:"auth"`
	// DefaultFolders maps level name -> folder templates seeded at
	// registration. Omitted levels fall back to the built-in table.
	DefaultFolders map[string][]string `yaml:"default_folders"`
}

// Load reads a YAML config file, applies defaults, and validates it.
func Load(path string) (Config, error) {
	var c Config
	if path == "" {
		return c, errors.New("config path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	if err := validate(&c); err != nil {
		return Config{}, err
	}
	c.Store.SQLite.Path = strings.TrimSpace(c.Store.SQLite.Path)
	c.Auth.JWTSecretFile = strings.TrimSpace(c.Auth.JWTSecretFile)
	return c, nil
}

// DefaultSet converts the configured template table into the
// evaluator's form, overlaying the built-in defaults.
func (c Config) DefaultSet() (access.DefaultSet, error) {
	set := access.Defaults()
	for name, folders := range c.DefaultFolders {
		level, err := access.ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("default_folders: %w", err)
		}
		set[level] = append([]string(nil), folders...)
	}
	return set, nil
}

// applyDefaults populates zero-values with sane defaults.
func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "sqlite"
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = "./data/s3bucmg.db"
	}
	if c.HTTP.Bind == "" {
		c.HTTP.Bind = "127.0.0.1"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5143
	}
	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = 12
	}
}

// validate performs basic sanity checks for required fields and ranges.
// It does not mutate the config.
func validate(c *Config) error {
	if strings.TrimSpace(c.Log.Level) == "" {
		return errors.New("log.level is required")
	}
	switch c.Store.Backend {
	case "sqlite":
		if strings.TrimSpace(c.Store.SQLite.Path) == "" {
			return errors.New("store.sqlite.path is required")
		}
	case "dynamo":
		if strings.TrimSpace(c.Store.Dynamo.Table) == "" {
			return errors.New("store.dynamo.table is required")
		}
		if strings.TrimSpace(c.Store.Dynamo.Region) == "" {
			return errors.New("store.dynamo.region is required")
		}
	case "memory":
		// Nothing to check; records vanish on restart.
	default:
		return fmt.Errorf("store.backend must be sqlite, dynamo, or memory (got %q)", c.Store.Backend)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return errors.New("http.port is invalid")
	}
	if c.Auth.TokenTTLHours < 1 || c.Auth.TokenTTLHours > 24*30 {
		return errors.New("auth.token_ttl_hours is invalid")
	}
	for name, folders := range c.DefaultFolders {
		if _, err := access.ParseLevel(name); err != nil {
			return fmt.Errorf("default_folders: unknown level %q", name)
		}
		for _, f := range folders {
			probe := strings.ReplaceAll(f, access.Placeholder, "probe")
			if _, err := access.NormalizeFolder(probe); err != nil {
				return fmt.Errorf("default_folders.%s: bad entry %q", name, f)
			}
		}
	}
	return nil
}
