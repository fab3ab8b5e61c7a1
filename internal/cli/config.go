package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the optional configuration file.
//
// Example:
//
//	database:
//	  driver: sqlite3
//	  dsn: ./app.db
//	revisions: ./revisions.cue
//	version_store: user_version
//	upgrade: PERFORM_UPGRADES
//	arguments:
//	  owner: string:app
//	  quota: int64:1000
//
// Relative revisions paths are resolved against the config file's directory.
// Command line flags override file values.
type Config struct {
	Database     DatabaseConfig    `yaml:"database"`
	Revisions    string            `yaml:"revisions"`
	VersionStore string            `yaml:"version_store"`
	VersionTable string            `yaml:"version_table"`
	Upgrade      string            `yaml:"upgrade"`
	Arguments    map[string]string `yaml:"arguments"`
}

// DatabaseConfig identifies the target database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LoadConfig reads a configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "revision:" vs "revisions:")
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Revisions != "" && !filepath.IsAbs(cfg.Revisions) {
		cfg.Revisions = filepath.Join(filepath.Dir(path), cfg.Revisions)
	}

	return &cfg, nil
}
