// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Default locations, relative to the working directory or the executable.
const (
	DefaultMapping  = "consent_forms/combined_mapping.json"
	DefaultTemplate = "defaults/consent_form_default.html"
)

// Environment variables that provide defaults for the path flags.
const (
	EnvMapping  = "CONSENT_MAPPING"
	EnvTemplate = "CONSENT_TEMPLATE"
	EnvOutDir   = "CONSENT_OUTDIR"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	Mapping  string `json:"mapping,omitempty"`  // Path to the site mapping (JSON or YAML)
	Template string `json:"template,omitempty"` // Path to the shared HTML template
	OutDir   string `json:"outdir,omitempty"`   // Output directory; empty writes next to the mapping

	// Behavior
	Verbose  bool `json:"verbose,omitempty"`                         // Print a summary box after the build
	DryRun   bool `json:"dry_run,omitempty"`                         // Resolve output paths without writing
	Workers  int  `json:"workers,omitempty" validate:"gte=0,lte=64"` // Sites individualized concurrently
	Sanitize bool `json:"sanitize,omitempty"`                        // Run override text through the HTML sanitizer
	Strict   bool `json:"strict,omitempty"`                          // Schema-validate the mapping before building

	// Logging
	LogFormat string `json:"log_format,omitempty" validate:"omitempty,oneof=console json"`
	LogLevel  string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Mapping:   DefaultMapping,
		Template:  DefaultTemplate,
		Workers:   1,
		LogFormat: "console",
		LogLevel:  "info",
	}
}

// FromEnv returns the path settings found in the environment.
func FromEnv() Config {
	return Config{
		Mapping:  os.Getenv(EnvMapping),
		Template: os.Getenv(EnvTemplate),
		OutDir:   os.Getenv(EnvOutDir),
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so errors match the config file.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check that paths exist since path discovery happens
// after merging with flags.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		// Report the first failure only
		fe := validationErrors[0]
		if fe.Param() != "" {
			return fmt.Errorf("config error: '%s' failed '%s=%s' (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("config error: '%s' failed '%s' (got %v)", fe.Field(), fe.Tag(), fe.Value())
	}
	return fmt.Errorf("config error: %w", err)
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer the config file and environment under CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Mapping == "" {
		result.Mapping = defaults.Mapping
	}
	if result.Template == "" {
		result.Template = defaults.Template
	}
	if result.OutDir == "" {
		result.OutDir = defaults.OutDir
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	// Int fields: use default if zero
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}

	// Bool fields: a true default switches the behavior on, a false one
	// cannot be told apart from unset
	result.Verbose = result.Verbose || defaults.Verbose
	result.DryRun = result.DryRun || defaults.DryRun
	result.Sanitize = result.Sanitize || defaults.Sanitize
	result.Strict = result.Strict || defaults.Strict

	return result
}
