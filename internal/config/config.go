package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// HistoryConfig represents run-history storage configuration
type HistoryConfig struct {
	// Enabled enables recording of runs to the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`

	// KeepRuns is the maximum number of runs to keep (0 = unlimited)
	KeepRuns int `yaml:"keep_runs"`
}

// Config represents pathrunner configuration options
type Config struct {
	// MaxWorkers is the maximum number of concurrent tasks (0 = number of CPUs)
	MaxWorkers int `yaml:"max_workers"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// IgnoreFile is the ignore file consulted in the project root
	IgnoreFile string `yaml:"ignore_file"`

	// RootMarkers are the files or directories that identify a project root
	RootMarkers []string `yaml:"root_markers"`

	// IncludeExtensions are the file extensions eligible for the walk
	IncludeExtensions []string `yaml:"include_extensions"`

	// History contains run-history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		MaxWorkers:        0, // Number of CPUs
		LogLevel:          "info",
		IgnoreFile:        ".gitignore",
		RootMarkers:       []string{"pyproject.toml", ".git", ".hg"},
		IncludeExtensions: []string{".py", ".pyi"},
		History: HistoryConfig{
			Enabled:  false,
			DBPath:   ".pathrunner/history.db",
			KeepRuns: 100,
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist, return defaults (not an error)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if fileCfg.MaxWorkers != 0 {
		cfg.MaxWorkers = fileCfg.MaxWorkers
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.IgnoreFile != "" {
		cfg.IgnoreFile = fileCfg.IgnoreFile
	}
	if len(fileCfg.RootMarkers) > 0 {
		cfg.RootMarkers = fileCfg.RootMarkers
	}
	if len(fileCfg.IncludeExtensions) > 0 {
		cfg.IncludeExtensions = fileCfg.IncludeExtensions
	}

	// Merge the history section only when it is present at all, so that
	// "enabled: false" inside an explicit section is honored.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if historySection, exists := rawMap["history"]; exists && historySection != nil {
			historyMap, _ := historySection.(map[string]interface{})

			if _, exists := historyMap["enabled"]; exists {
				cfg.History.Enabled = fileCfg.History.Enabled
			}
			if _, exists := historyMap["db_path"]; exists {
				cfg.History.DBPath = fileCfg.History.DBPath
			}
			if _, exists := historyMap["keep_runs"]; exists {
				cfg.History.KeepRuns = fileCfg.History.KeepRuns
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .pathrunner/config.yaml in the
// specified directory
// If the directory or file doesn't exist, returns default configuration
// without error
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ".pathrunner", "config.yaml")
	return LoadConfig(configPath)
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
// This allows CLI flags to take precedence over config file settings
func (c *Config) MergeWithFlags(maxWorkers *int, logLevel *string, ignoreFile *string) {
	if maxWorkers != nil {
		c.MaxWorkers = *maxWorkers
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if ignoreFile != nil {
		c.IgnoreFile = *ignoreFile
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.MaxWorkers < 0 {
		return fmt.Errorf("max_workers must be >= 0, got %d", c.MaxWorkers)
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

	if c.IgnoreFile == "" {
		return fmt.Errorf("ignore_file cannot be empty")
	}
	if len(c.RootMarkers) == 0 {
		return fmt.Errorf("root_markers cannot be empty")
	}
	if len(c.IncludeExtensions) == 0 {
		return fmt.Errorf("include_extensions cannot be empty")
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
