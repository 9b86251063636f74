// Package config loads and validates the taskclaim configuration.
// Configuration is read via viper from a YAML file, environment variables
// (TASKCLAIM_ prefix), and command-line flags, with defaults for every key.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete taskclaim configuration
type Config struct {
	// DataDir is the directory holding both documents, their locks,
	// backups, and the audit log (default: ".taskclaim")
	DataDir string `mapstructure:"data_dir"`

	Lock    LockConfig    `mapstructure:"lock"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Backup  BackupConfig  `mapstructure:"backup"`
	Session SessionConfig `mapstructure:"session"`
	Tasks   TasksConfig   `mapstructure:"tasks"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LockConfig controls advisory lock acquisition
type LockConfig struct {
	// TimeoutMs is how long an invocation waits for a document lock
	// before failing with a recoverable lock-timeout error
	TimeoutMs int `mapstructure:"timeout_ms"`
	// PollIntervalMs is the sleep between non-blocking acquisition attempts
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
}

// Timeout returns the lock acquisition timeout as a duration.
func (l LockConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutMs) * time.Millisecond
}

// PollInterval returns the acquisition poll interval as a duration.
func (l LockConfig) PollInterval() time.Duration {
	return time.Duration(l.PollIntervalMs) * time.Millisecond
}

// RetryConfig controls wholesale retry of recoverable failures
type RetryConfig struct {
	// MaxAttempts is the total attempt budget per operation (including the first)
	MaxAttempts int `mapstructure:"max_attempts"`
	// InitialDelayMs is the backoff before the second attempt
	InitialDelayMs int `mapstructure:"initial_delay_ms"`
	// Multiplier scales the delay after each failed attempt
	Multiplier float64 `mapstructure:"multiplier"`
	// MaxElapsedMs caps total wall time spent retrying, 0 = no cap
	MaxElapsedMs int `mapstructure:"max_elapsed_ms"`
}

// BackupConfig controls per-document backup retention
type BackupConfig struct {
	// Retention is how many numbered backups to keep per document
	Retention int `mapstructure:"retention"`
}

// SessionConfig controls session lifecycle policy
type SessionConfig struct {
	// MaxConcurrent is the maximum number of live sessions (active + suspended)
	MaxConcurrent int `mapstructure:"max_concurrent"`
	// MaxActiveTasksPerScope bounds how many tasks one scope may claim, 0 = no limit
	MaxActiveTasksPerScope int `mapstructure:"max_active_tasks_per_scope"`
	// AllowNestedScopes permits a scope that is a proper subset/superset of
	// another active scope (default: true, emits a warning)
	AllowNestedScopes bool `mapstructure:"allow_nested_scopes"`
	// AllowScopeOverlap permits partially overlapping scopes (default: false)
	AllowScopeOverlap bool `mapstructure:"allow_scope_overlap"`
}

// TasksConfig controls task hierarchy policy
type TasksConfig struct {
	// MaxDepth is the maximum hierarchy depth for new tasks
	MaxDepth int `mapstructure:"max_depth"`
	// MaxChildren is the maximum direct children per parent, 0 = no limit
	MaxChildren int `mapstructure:"max_children"`
}

// LoggingConfig controls the debug log
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DataDir: ".taskclaim",
		Lock: LockConfig{
			TimeoutMs:      5000,
			PollIntervalMs: 25,
		},
		Retry: RetryConfig{
			MaxAttempts:    4,
			InitialDelayMs: 50,
			Multiplier:     2.0,
			MaxElapsedMs:   10000,
		},
		Backup: BackupConfig{
			Retention: 3,
		},
		Session: SessionConfig{
			MaxConcurrent:          8,
			MaxActiveTasksPerScope: 0,
			AllowNestedScopes:      true,
			AllowScopeOverlap:      false,
		},
		Tasks: TasksConfig{
			MaxDepth:    5,
			MaxChildren: 50,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// SetDefaults registers all default values with viper. Must be called
// before viper reads the config file so defaults survive partial configs.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("data_dir", defaults.DataDir)

	viper.SetDefault("lock.timeout_ms", defaults.Lock.TimeoutMs)
	viper.SetDefault("lock.poll_interval_ms", defaults.Lock.PollIntervalMs)

	viper.SetDefault("retry.max_attempts", defaults.Retry.MaxAttempts)
	viper.SetDefault("retry.initial_delay_ms", defaults.Retry.InitialDelayMs)
	viper.SetDefault("retry.multiplier", defaults.Retry.Multiplier)
	viper.SetDefault("retry.max_elapsed_ms", defaults.Retry.MaxElapsedMs)

	viper.SetDefault("backup.retention", defaults.Backup.Retention)

	viper.SetDefault("session.max_concurrent", defaults.Session.MaxConcurrent)
	viper.SetDefault("session.max_active_tasks_per_scope", defaults.Session.MaxActiveTasksPerScope)
	viper.SetDefault("session.allow_nested_scopes", defaults.Session.AllowNestedScopes)
	viper.SetDefault("session.allow_scope_overlap", defaults.Session.AllowScopeOverlap)

	viper.SetDefault("tasks.max_depth", defaults.Tasks.MaxDepth)
	viper.SetDefault("tasks.max_children", defaults.Tasks.MaxChildren)

	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load unmarshals the current viper state into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigDir returns the directory for the user-level config file.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskclaim")
}
