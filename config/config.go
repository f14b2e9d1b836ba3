package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix shared by every environment override.
const EnvPrefix = "CLAUDE_SESSIONS"

// Config holds all application configuration.
//
// Precedence, lowest to highest: built-in defaults, the optional YAML file,
// then CLAUDE_SESSIONS_* environment variables.
type Config struct {
	// Server settings
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"`
	Env  string `yaml:"env" envconfig:"ENV"` // "development" or "production"

	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	// Root of the Claude Code data directory (projects/, debug/, todos/, stats-cache.json)
	ClaudeDir string `yaml:"claude_dir" envconfig:"CLAUDE_DIR"`

	ActiveThresholdMinutes int `yaml:"active_threshold_minutes" envconfig:"ACTIVE_THRESHOLD_MINUTES"`

	// Paging
	DefaultPageSize int `yaml:"default_page_size" envconfig:"DEFAULT_PAGE_SIZE"`
	MaxPageSize     int `yaml:"max_page_size" envconfig:"MAX_PAGE_SIZE"`
	MaxArtifacts    int `yaml:"max_artifacts" envconfig:"MAX_ARTIFACTS"`

	// Number of session files parsed concurrently during full scans
	ScanWorkers int `yaml:"scan_workers" envconfig:"SCAN_WORKERS"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host:                   "127.0.0.1",
		Port:                   8080,
		Env:                    "development",
		LogLevel:               "info",
		ClaudeDir:              defaultClaudeDir(),
		ActiveThresholdMinutes: 5,
		DefaultPageSize:        50,
		MaxPageSize:            200,
		MaxArtifacts:           100,
		ScanWorkers:            8,
	}
}

// Load builds the configuration. path may be empty, in which case
// CLAUDE_SESSIONS_CONFIG is consulted; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg.ClaudeDir = expandHome(cfg.ClaudeDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings the rest of the application cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.ClaudeDir == "":
		return errors.New("claude_dir must not be empty")
	case c.ActiveThresholdMinutes <= 0:
		return fmt.Errorf("active_threshold_minutes must be positive, got %d", c.ActiveThresholdMinutes)
	case c.DefaultPageSize <= 0 || c.MaxPageSize <= 0:
		return errors.New("page sizes must be positive")
	case c.DefaultPageSize > c.MaxPageSize:
		return fmt.Errorf("default_page_size %d exceeds max_page_size %d", c.DefaultPageSize, c.MaxPageSize)
	case c.MaxArtifacts <= 0:
		return fmt.Errorf("max_artifacts must be positive, got %d", c.MaxArtifacts)
	case c.ScanWorkers <= 0:
		return fmt.Errorf("scan_workers must be positive, got %d", c.ScanWorkers)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func defaultClaudeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude"
	}
	return filepath.Join(home, ".claude")
}

func expandHome(path string) string {
	if path == "~" || len(path) > 1 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
