// Package config loads settings for the medline commands.
//
// Values are resolved in order, later sources winning:
//   - built-in defaults
//   - a YAML file passed with --config or MEDLINE_CONFIG
//   - a .env file in the working directory, then the process environment
//   - command-line overrides
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/medline/core/errors"
	"github.com/FocuswithJustin/medline/core/medline"
	"github.com/FocuswithJustin/medline/internal/logging"
)

// Environment variable names.
const (
	EnvConfig      = "MEDLINE_CONFIG"
	EnvDefaultType = "MEDLINE_DEFAULT_TYPE"
	EnvDatabase    = "MEDLINE_DB"
	EnvLogLevel    = "MEDLINE_LOG_LEVEL"
	EnvLogFormat   = "MEDLINE_LOG_FORMAT"
	EnvPageSize    = "MEDLINE_PAGE_SIZE"
)

// Config holds command settings.
type Config struct {
	// DefaultType is the canonical type written for records whose type
	// has no MEDLINE label.
	DefaultType string `yaml:"default_type"`

	// Database is the library DSN or file path.
	Database string `yaml:"database"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is json or text.
	LogFormat string `yaml:"log_format"`

	// PageSize is the number of records fetched per export batch.
	PageSize int `yaml:"page_size"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DefaultType: medline.DefaultType,
		Database:    "medline.db",
		LogLevel:    "warn",
		LogFormat:   "text",
		PageSize:    100,
	}
}

// Overrides are command-line values applied after every other source.
// Empty fields leave the resolved value alone.
type Overrides struct {
	DefaultType string
	LogLevel    string
	LogFormat   string
}

func (o Overrides) apply(cfg *Config) {
	if o.DefaultType != "" {
		cfg.DefaultType = o.DefaultType
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
}

// Load resolves the configuration. path may be empty, in which case
// MEDLINE_CONFIG is consulted; a missing named file is an error.
func Load(path string, envFiles ...string) (*Config, error) {
	return LoadWithOverrides(path, Overrides{}, envFiles...)
}

// LoadWithOverrides is Load with command-line overrides applied before
// validation.
func LoadWithOverrides(path string, o Overrides, envFiles ...string) (*Config, error) {
	cfg := Default()

	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, errors.NewIO("load", strings.Join(envFiles, ","), err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		// .env is optional but must parse when present
		return nil, errors.NewIO("load", ".env", err)
	}

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewIO("read", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.NewParse("config", path, err.Error())
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvDefaultType)); v != "" {
		c.DefaultType = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabase)); v != "" {
		c.Database = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		c.LogFormat = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPageSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &errors.ValidationError{Field: EnvPageSize, Value: v, Message: "must be an integer"}
		}
		c.PageSize = n
	}
	return nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if !medline.IsKnownType(c.DefaultType) {
		return &errors.ValidationError{
			Field:   "default_type",
			Value:   c.DefaultType,
			Message: fmt.Sprintf("%q is not a mapped canonical type", c.DefaultType),
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return &errors.ValidationError{Field: "log_level", Value: c.LogLevel, Message: err.Error()}
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return &errors.ValidationError{Field: "log_format", Value: c.LogFormat, Message: err.Error()}
	}
	if c.PageSize <= 0 {
		return &errors.ValidationError{Field: "page_size", Value: strconv.Itoa(c.PageSize), Message: "must be positive"}
	}
	return nil
}

// InitLogging configures the global logger from the settings.
func (c *Config) InitLogging() {
	level, _ := logging.ParseLevel(c.LogLevel)
	format, _ := logging.ParseFormat(c.LogFormat)
	logging.InitLogger(level, format)
}
