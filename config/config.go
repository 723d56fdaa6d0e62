// Package config provides YAML configuration parsing for the contactbook
// binary.
//
// This package enables running the contact book with a configuration file,
// as an alternative to the programmatic SDK approach. Every field is
// optional; see [Default] for the values used when one is omitted.
//
// Example configuration:
//
//	title: Team Phonebook
//
//	storage:
//	  driver: sqlite
//	  path: ${HOME}/.contacts.db
//
//	log:
//	  level: info
//	  format: pretty
//
//	server:
//	  port: 9090
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/contactbook"
	"github.com/jpalmerr/contactbook/internal/logging"
)

// Config is the root configuration structure.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard and API title. Defaults to "Contacts".
	Title string `yaml:"title"`

	// Storage selects where contacts are persisted.
	Storage StorageConfig `yaml:"storage"`

	// Log configures the process logger.
	Log logging.Options `yaml:"log"`

	// Server configures the serve command.
	Server ServerConfig `yaml:"server"`
}

// StorageConfig selects and configures the storage driver.
type StorageConfig struct {
	// Driver is "json" (default), "sqlite" or "mongo".
	Driver string `yaml:"driver"`

	// Path is the JSON file or SQLite database.
	// Defaults to "contacts.txt" for json and is required for sqlite.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Path string `yaml:"path"`

	// Mongo configures the mongo driver.
	Mongo MongoConfig `yaml:"mongo"`
}

// MongoConfig locates the MongoDB collection holding contacts.
type MongoConfig struct {
	// URI is the connection string. Required for the mongo driver.
	// Supports environment variable substitution.
	URI string `yaml:"uri"`

	// Database defaults to "contactbook".
	Database string `yaml:"database"`

	// Collection defaults to "contacts".
	Collection string `yaml:"collection"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// Watch reloads contacts when the JSON file is edited by another
	// program while serving. Defaults to true.
	Watch bool `yaml:"watch"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Title: "Contacts",
		Storage: StorageConfig{
			Driver: contactbook.DriverJSON,
			Mongo: MongoConfig{
				Database:   "contactbook",
				Collection: "contacts",
			},
		},
		Log: logging.Options{
			Level:  "warn",
			Format: "text",
		},
		Server: ServerConfig{
			Port:  8080,
			Watch: true,
		},
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Fields missing from data keep their [Default] values. Environment
// variables are expanded in storage.path, storage.mongo.uri and log.file.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	var err error

	if c.Storage.Path, err = expandEnvVars(c.Storage.Path); err != nil {
		return fmt.Errorf("storage.path: %w", err)
	}
	if c.Storage.Mongo.URI, err = expandEnvVars(c.Storage.Mongo.URI); err != nil {
		return fmt.Errorf("storage.mongo.uri: %w", err)
	}
	if c.Log.File, err = expandEnvVars(c.Log.File); err != nil {
		return fmt.Errorf("log.file: %w", err)
	}

	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = contactbook.DriverJSON
	case contactbook.DriverJSON:
	case contactbook.DriverSQLite:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the sqlite driver")
		}
	case contactbook.DriverMongo:
		m := c.Storage.Mongo
		if m.URI == "" {
			return errors.New("storage.mongo.uri is required for the mongo driver")
		}
		if m.Database == "" || m.Collection == "" {
			return errors.New("storage.mongo.database and storage.mongo.collection cannot be empty")
		}
	default:
		return fmt.Errorf("storage.driver must be json, sqlite or mongo, got %q", c.Storage.Driver)
	}

	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if !logging.ValidFormat(c.Log.Format) {
		return fmt.Errorf("log.format must be text, json or pretty, got %q", c.Log.Format)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	return nil
}
