package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries file-based defaults for CLI commands. Flags win over
// config values.
type Config struct {
	// Database is the SQLite database path used when --db is not given.
	Database string `yaml:"database"`

	// Cache toggles the in-process version cache. Unset means enabled.
	Cache *bool `yaml:"cache"`

	// SchemaFile points at a CUE schema enforced on drafts at publish.
	SchemaFile string `yaml:"schema_file"`

	// DefaultPublisher identifies the publisher when --by is not given:
	// a UUID, or a name hashed into a stable one.
	DefaultPublisher string `yaml:"default_publisher"`
}

// LoadConfig reads a YAML config file. Unknown keys are rejected so a
// typo fails loudly instead of silently falling back to defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		// An empty config file is a valid all-defaults config.
		if errors.Is(err, io.EOF) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// CacheEnabled reports whether commands should attach the in-process
// cache. Safe on a nil config.
func (c *Config) CacheEnabled() bool {
	if c == nil || c.Cache == nil {
		return true
	}
	return *c.Cache
}
