// Package config loads genq's configuration.
//
// Sources are applied in increasing precedence:
//
//	Default() -> YAML file -> GENQ_* environment -> command-line flags
//
// Flags are applied by the CLI after Load returns.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	genqerrors "github.com/roach88/genq/internal/errors"
	"github.com/roach88/genq/internal/schema"
)

// EnvPrefix prefixes every environment variable genq reads.
const EnvPrefix = "GENQ_"

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
	DriverMemory   = "memory"
)

// Config is the complete configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"   envPrefix:"SERVER_"`
	Search   SearchConfig   `yaml:"search"   envPrefix:"SEARCH_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	Logging  LoggingConfig  `yaml:"logging"  envPrefix:"LOG_"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr       string `yaml:"addr"        env:"ADDR"`
	PathPrefix string `yaml:"path_prefix" env:"PATH_PREFIX"` // routing prefix for every endpoint
}

// SearchConfig configures resolution and query building.
type SearchConfig struct {
	FallbackPrefix string            `yaml:"fallback_prefix" env:"FALLBACK_PREFIX"` // "none" disables the retry
	QueryShape     bool              `yaml:"query_shape"     env:"QUERY_SHAPE"`
	InternalFields []string          `yaml:"internal_fields" env:"INTERNAL_FIELDS" envSeparator:","`
	Hints          map[string]string `yaml:"hints"           env:"HINTS"           envSeparator:"," envKeyValSeparator:"="`
}

// DatabaseConfig selects and configures the persistence engine.
type DatabaseConfig struct {
	Driver       string        `yaml:"driver"        env:"DRIVER"`
	DSN          string        `yaml:"dsn"           env:"DSN"`
	Schema       string        `yaml:"schema"        env:"SCHEMA"`
	Definitions  string        `yaml:"definitions"   env:"DEFINITIONS"` // CUE directory, memory driver only
	QueryTimeout time.Duration `yaml:"query_timeout" env:"QUERY_TIMEOUT"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level     string `yaml:"level"      env:"LEVEL"`  // debug, info, warn, error
	Format    string `yaml:"format"     env:"FORMAT"` // text, json
	AddSource bool   `yaml:"add_source" env:"ADD_SOURCE"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":8080",
			PathPrefix: "/",
		},
		Search: SearchConfig{
			FallbackPrefix: schema.DisabledPrefix,
			InternalFields: []string{"rowid", "oid", "_rowid_", "ctid", "xmin", "xmax", "cmin", "cmax", "tableoid"},
			Hints: map[string]string{
				"cache.retrieveMode": "USE",
				"cache.storeMode":    "USE",
			},
		},
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			DSN:          "genq.db",
			QueryTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from the defaults, the YAML file at path (skipped
// when path is empty) and the environment. A nil environ reads the process
// environment.
func Load(path string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, genqerrors.Wrap(err, genqerrors.ErrTypeConfig, "failed to parse environment variables")
	}

	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current values; hints are merged into the existing map.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return genqerrors.Wrapf(err, genqerrors.ErrTypeConfig, "failed to read config file %s", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return genqerrors.Wrapf(err, genqerrors.ErrTypeConfig, "failed to parse config file %s", path)
	}
	return nil
}

// Validate checks c for values no component can work with, and normalizes
// the path prefix and driver name.
func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverDuckDB:
		if c.Database.DSN == "" {
			return genqerrors.Newf(genqerrors.ErrTypeConfig, "database.dsn is required for driver %s", c.Database.Driver)
		}
	case DriverMemory:
		if c.Database.Definitions == "" {
			return genqerrors.New(genqerrors.ErrTypeConfig, "database.definitions is required for the memory driver")
		}
	default:
		return genqerrors.Newf(genqerrors.ErrTypeConfig,
			"invalid database driver: %s (must be sqlite, postgres, duckdb, or memory)", c.Database.Driver)
	}

	if c.Database.QueryTimeout < 0 {
		return genqerrors.Newf(genqerrors.ErrTypeConfig, "database.query_timeout must not be negative, got %s", c.Database.QueryTimeout)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return genqerrors.Newf(genqerrors.ErrTypeConfig,
			"invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return genqerrors.Newf(genqerrors.ErrTypeConfig, "invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	if !strings.HasPrefix(c.Server.PathPrefix, "/") {
		c.Server.PathPrefix = "/" + c.Server.PathPrefix
	}
	return nil
}

// SchemaName returns the configured schema, or the driver's default.
func (c *Config) SchemaName() string {
	if c.Database.Schema != "" {
		return c.Database.Schema
	}
	switch c.Database.Driver {
	case DriverPostgres:
		return "public"
	case DriverDuckDB:
		return "main"
	default:
		return ""
	}
}

// String renders c as YAML.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", *c)
	}
	return string(data)
}
