// Package config loads spannerddl settings from a YAML file, a .env file
// and SPANNERDDL_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SPANNERDDL_"

// Config holds the settings shared by the CLI and the library facade
type Config struct {
	// DatabaseURL selects the source: spanner://, postgres://, mysql:// or sqlite://
	DatabaseURL string `yaml:"database_url"`

	// SnapshotSchema is the PostgreSQL schema holding snapshot tables
	SnapshotSchema string `yaml:"snapshot_schema"`

	ExcludeTables   []string `yaml:"exclude_tables"`
	CheckReferences bool     `yaml:"check_references"`

	Output OutputConfig `yaml:"output"`

	Verbose bool `yaml:"verbose"`
}

// OutputConfig selects where and how the schema is written
type OutputConfig struct {
	File   string `yaml:"file"`
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() *Config {
	return &Config{
		SnapshotSchema: "spanner_snapshot",
		Output: OutputConfig{
			Format: "ddl",
		},
	}
}

// Load builds the effective configuration. path may be empty, in which
// case only defaults and the environment apply. A missing .env file is
// not an error. The result is not validated, so callers can apply their
// own overrides first.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv overrides cfg from SPANNERDDL_* environment variables
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv(envPrefix + "DB_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv(envPrefix + "SNAPSHOT_SCHEMA"); v != "" {
		cfg.SnapshotSchema = v
	}
	if v := os.Getenv(envPrefix + "EXCLUDE"); v != "" {
		cfg.ExcludeTables = SplitList(v)
	}
	if v := os.Getenv(envPrefix + "CHECK_REFS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sCHECK_REFS: %w", envPrefix, err)
		}
		cfg.CheckReferences = b
	}
	if v := os.Getenv(envPrefix + "OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv(envPrefix + "FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv(envPrefix + "VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sVERBOSE: %w", envPrefix, err)
		}
		cfg.Verbose = b
	}
	return nil
}

// Validate checks values that cannot be fixed up later
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "ddl", "markdown":
	default:
		return fmt.Errorf("invalid output format %q (must be ddl or markdown)", c.Output.Format)
	}
	if c.Output.File != "" && c.Output.Dir != "" {
		return fmt.Errorf("output file and output dir are mutually exclusive")
	}
	return nil
}

// SplitList parses a comma-separated list, trimming blanks
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
