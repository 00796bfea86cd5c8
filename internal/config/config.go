// Package config loads docval configuration from .docval/config.yaml,
// merging file values over built-in defaults and CLI flags over both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// HistoryConfig controls the run-history database.
type HistoryConfig struct {
	// Enabled turns run recording on.
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the sqlite history database.
	DBPath string `yaml:"db_path"`

	// KeepRuns is how many most recent runs to retain; older runs are
	// pruned after each insert. 0 disables pruning.
	KeepRuns int `yaml:"keep_runs"`
}

// Config represents docval configuration options.
type Config struct {
	// Timeout is the hard per-example execution limit.
	Timeout time.Duration `yaml:"timeout"`

	// Tolerance is the relative slack applied to numeric output
	// comparison in docstring sessions.
	Tolerance float64 `yaml:"tolerance"`

	// Workers is the number of concurrent executions (0 = NumCPU).
	Workers int `yaml:"workers"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written. Empty means
	// logs/ under the docval home directory.
	LogDir string `yaml:"log_dir"`

	// Python is the interpreter binary used to run examples.
	Python string `yaml:"python"`

	// History contains run-history configuration.
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		Tolerance: 0.10,
		Workers:   0, // NumCPU
		LogLevel:  "info",
		LogDir:    "", // resolved against the docval home at run time
		Python:    "python3",
		History: HistoryConfig{
			Enabled:  true,
			DBPath:   filepath.Join(".docval", "history.db"),
			KeepRuns: 50,
		},
	}
}

// LoadConfig loads configuration from the specified file path. A missing
// file yields the defaults without error; a malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations arrive as strings ("45s"), so unmarshal through an
	// intermediate shape first.
	type yamlConfig struct {
		Timeout   string        `yaml:"timeout"`
		Tolerance float64       `yaml:"tolerance"`
		Workers   int           `yaml:"workers"`
		LogLevel  string        `yaml:"log_level"`
		LogDir    string        `yaml:"log_dir"`
		Python    string        `yaml:"python"`
		History   HistoryConfig `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", yamlCfg.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	if yamlCfg.Tolerance != 0 {
		cfg.Tolerance = yamlCfg.Tolerance
	}
	if yamlCfg.Workers != 0 {
		cfg.Workers = yamlCfg.Workers
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.Python != "" {
		cfg.Python = yamlCfg.Python
	}

	// The history section needs key-presence detection: `enabled: false`
	// must override the default true, but an absent section must not.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, exists := rawMap["history"]; exists && section != nil {
			historyMap, _ := section.(map[string]interface{})

			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = yamlCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				cfg.History.DBPath = yamlCfg.History.DBPath
			}
			if _, exists := historyMap["keep_runs"]; exists {
				cfg.History.KeepRuns = yamlCfg.History.KeepRuns
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .docval/config.yaml in the
// specified directory. A missing directory or file yields the defaults.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".docval", "config.yaml"))
}

// MergeWithFlags merges CLI flag values into the configuration. Non-nil
// flag values override file and default settings.
func (c *Config) MergeWithFlags(timeout *time.Duration, tolerance *float64, workers *int, python *string) {
	if timeout != nil {
		c.Timeout = *timeout
	}
	if tolerance != nil {
		c.Tolerance = *tolerance
	}
	if workers != nil {
		c.Workers = *workers
	}
	if python != nil {
		c.Python = *python
	}
}

// Validate returns an error if any configuration values are invalid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", c.Timeout)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be >= 0, got %v", c.Tolerance)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.Python == "" {
		return fmt.Errorf("python interpreter cannot be empty")
	}

	if c.History.Enabled {
		if c.History.DBPath == "" {
			return fmt.Errorf("history.db_path cannot be empty when history is enabled")
		}
		if c.History.KeepRuns < 0 {
			return fmt.Errorf("history.keep_runs must be >= 0, got %d", c.History.KeepRuns)
		}
	}

	return nil
}
