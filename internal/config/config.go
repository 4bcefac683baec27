// Package config loads transval configuration from YAML and merges
// command-line flags over it.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hnt4499/transval/internal/governor"
)

// GovernorConfig holds the validation output governor settings.
type GovernorConfig struct {
	// EvalBLEUPrintSamples limits how many sample triples are printed per
	// validation pass. -1 prints every sample, 0 suppresses all.
	EvalBLEUPrintSamples int `yaml:"eval_bleu_print_samples"`

	// ValSuppressProgressBar disables the incremental progress indicator
	// during validation.
	ValSuppressProgressBar bool `yaml:"val_suppress_progress_bar"`

	// ValLogInterval is the number of batches between log lines when the
	// progress indicator is suppressed.
	ValLogInterval int `yaml:"val_log_interval"`

	// SaveLog duplicates validation output to a run log file in the save
	// directory.
	SaveLog bool `yaml:"save_log"`
}

// HistoryConfig holds the pass-history store settings.
type HistoryConfig struct {
	// Enabled turns pass-history recording on.
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database.
	DBPath string `yaml:"db_path"`

	// KeepDays is how long recorded passes are retained.
	KeepDays int `yaml:"keep_days"`
}

// Config represents transval configuration options.
type Config struct {
	// LogLevel sets console verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// BatchSize is the number of results per validation batch.
	BatchSize int `yaml:"batch_size"`

	// SaveDir is the directory for run logs and the history database.
	SaveDir string `yaml:"save_dir"`

	// Governor contains the output governor settings.
	Governor GovernorConfig `yaml:"governor"`

	// History contains the pass-history store settings.
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		BatchSize: 32,
		SaveDir:   ".transval",
		Governor: GovernorConfig{
			EvalBLEUPrintSamples: governor.Unlimited,
			ValLogInterval:       1,
		},
		History: HistoryConfig{
			Enabled:  true,
			DBPath:   filepath.Join(".transval", "history.db"),
			KeepDays: 90,
		},
	}
}

// LoadConfig loads configuration from the specified file path. A missing
// file returns the defaults without error; a malformed file is an error.
// Keys absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal over the defaults: only keys present in the file are
	// overwritten.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .transval/config.yaml in the
// specified directory, falling back to defaults when absent.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".transval", "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration. Non-nil flag
// values override configuration values, so flags take precedence over the
// config file.
func (c *Config) MergeWithFlags(printSamples *int, suppressProgress *bool, logInterval *int, saveLog *bool, saveDir *string, batchSize *int, logLevel *string) {
	if printSamples != nil {
		c.Governor.EvalBLEUPrintSamples = *printSamples
	}
	if suppressProgress != nil {
		c.Governor.ValSuppressProgressBar = *suppressProgress
	}
	if logInterval != nil {
		c.Governor.ValLogInterval = *logInterval
	}
	if saveLog != nil {
		c.Governor.SaveLog = *saveLog
	}
	if saveDir != nil {
		// The history database follows the save directory unless db_path
		// was configured to live somewhere else.
		followsSaveDir := c.History.DBPath == filepath.Join(c.SaveDir, "history.db")
		c.SaveDir = *saveDir
		if followsSaveDir {
			c.History.DBPath = filepath.Join(c.SaveDir, "history.db")
		}
	}
	if batchSize != nil {
		c.BatchSize = *batchSize
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
}

// GovernorConfig builds the governor.Config the merged settings describe.
func (c *Config) GovernorConfig() governor.Config {
	return governor.Config{
		MaxSamples:       c.Governor.EvalBLEUPrintSamples,
		SuppressProgress: c.Governor.ValSuppressProgressBar,
		LogInterval:      c.Governor.ValLogInterval,
		SaveLog:          c.Governor.SaveLog,
		SaveDir:          c.SaveDir,
	}
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
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

	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1, got %d", c.BatchSize)
	}

	if err := c.GovernorConfig().Validate(); err != nil {
		return err
	}

	if c.History.Enabled {
		if c.History.DBPath == "" {
			return fmt.Errorf("history.db_path cannot be empty when history is enabled")
		}
		if c.History.KeepDays < 0 {
			return fmt.Errorf("history.keep_days must be >= 0, got %d", c.History.KeepDays)
		}
	}

	return nil
}
