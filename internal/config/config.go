package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/fileslice/internal/filelock"
	"github.com/harrison/fileslice/internal/hostfs"
	"github.com/harrison/fileslice/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config represents fileslice configuration options
type Config struct {
	// Root is the sandbox boundary. Required; there is no default.
	Root string `yaml:"root"`

	// Patterns are the wildcard patterns listed at each position
	Patterns []string `yaml:"patterns"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory for the append-only log file (empty disables file logging)
	LogDir string `yaml:"log_dir"`

	// StateDB is the SQLite session store (empty disables sessions)
	StateDB string `yaml:"state_db"`

	// Confine restricts the process to read-only access to Root (Linux only)
	Confine bool `yaml:"confine"`
}

// DefaultConfig returns a Config with sensible default values.
// Root is intentionally left empty.
func DefaultConfig() *Config {
	return &Config{
		Root:     "",
		Patterns: []string{"*"},
		LogLevel: "info",
		LogDir:   "logs",
		StateDB:  "state.db",
		Confine:  false,
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointers distinguish "absent" from an explicit empty value, so that
	// `log_dir: ""` can disable file logging.
	type yamlConfig struct {
		Root     string   `yaml:"root"`
		Patterns []string `yaml:"patterns"`
		LogLevel string   `yaml:"log_level"`
		LogDir   *string  `yaml:"log_dir"`
		StateDB  *string  `yaml:"state_db"`
		Confine  bool     `yaml:"confine"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.Root != "" {
		cfg.Root = yamlCfg.Root
	}
	if len(yamlCfg.Patterns) > 0 {
		cfg.Patterns = yamlCfg.Patterns
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != nil {
		cfg.LogDir = *yamlCfg.LogDir
	}
	if yamlCfg.StateDB != nil {
		cfg.StateDB = *yamlCfg.StateDB
	}
	if yamlCfg.Confine {
		cfg.Confine = yamlCfg.Confine
	}

	return cfg, nil
}

// SaveConfig writes cfg as YAML to path, atomically and under a file lock.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := filelock.LockAndWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values; a non-empty pattern
// list replaces the configured patterns.
func (c *Config) MergeWithFlags(root *string, patterns []string, logLevel *string, confine *bool) {
	if root != nil {
		c.Root = *root
	}
	if len(patterns) > 0 {
		c.Patterns = patterns
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if confine != nil {
		c.Confine = *confine
	}
}

// ResolvePaths makes relative LogDir and StateDB paths absolute under home.
// Root stays relative to the working directory, like any CLI path argument.
func (c *Config) ResolvePaths(home string) {
	if c.LogDir != "" && !filepath.IsAbs(c.LogDir) {
		c.LogDir = filepath.Join(home, c.LogDir)
	}
	if c.StateDB != "" && c.StateDB != ":memory:" && !filepath.IsAbs(c.StateDB) {
		c.StateDB = filepath.Join(home, c.StateDB)
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root is required: set it in the config file or pass --root")
	}

	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if len(c.Patterns) == 0 {
		return fmt.Errorf("patterns cannot be empty")
	}
	for _, p := range c.Patterns {
		if err := hostfs.ValidatePattern(p); err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	}

	return nil
}
