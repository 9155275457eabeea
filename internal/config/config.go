// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	ItemBank   string `json:"item_bank,omitempty"`   // Path to item bank JSON file
	BankSchema string `json:"bank_schema,omitempty"` // Path to item bank JSON Schema

	// Server
	Port        int    `json:"port,omitempty"`         // HTTP listen port
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Behavior
	Verbose             bool `json:"verbose,omitempty"`              // Print detailed debug information
	DynamicSelection    bool `json:"dynamic_selection,omitempty"`    // History-aware item selection for retakes
	EntitlementOverride bool `json:"entitlement_override,omitempty"` // Bypass the billing gate (operator use)
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

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

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}

	if c.ItemBank != "" {
		if _, err := os.Stat(c.ItemBank); os.IsNotExist(err) {
			return fmt.Errorf("config error: item bank file not found: %s", c.ItemBank)
		}
	}
	if c.BankSchema != "" {
		if _, err := os.Stat(c.BankSchema); os.IsNotExist(err) {
			return fmt.Errorf("config error: bank schema file not found: %s", c.BankSchema)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.ItemBank == "" {
		result.ItemBank = defaults.ItemBank
	}
	if result.BankSchema == "" {
		result.BankSchema = defaults.BankSchema
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
