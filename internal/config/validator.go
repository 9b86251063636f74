package config

import (
	"fmt"
	"strings"
)

// validLogLevels are the accepted logging.level values.
var validLogLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

// Validate checks the configuration for out-of-range values.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}

	if c.Lock.TimeoutMs <= 0 {
		return fmt.Errorf("lock.timeout_ms must be positive, got %d", c.Lock.TimeoutMs)
	}
	if c.Lock.PollIntervalMs <= 0 {
		return fmt.Errorf("lock.poll_interval_ms must be positive, got %d", c.Lock.PollIntervalMs)
	}
	if c.Lock.PollIntervalMs > c.Lock.TimeoutMs {
		return fmt.Errorf("lock.poll_interval_ms (%d) must not exceed lock.timeout_ms (%d)",
			c.Lock.PollIntervalMs, c.Lock.TimeoutMs)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.InitialDelayMs < 0 {
		return fmt.Errorf("retry.initial_delay_ms must not be negative, got %d", c.Retry.InitialDelayMs)
	}
	if c.Retry.Multiplier < 1.0 {
		return fmt.Errorf("retry.multiplier must be at least 1.0, got %g", c.Retry.Multiplier)
	}
	if c.Retry.MaxElapsedMs < 0 {
		return fmt.Errorf("retry.max_elapsed_ms must not be negative, got %d", c.Retry.MaxElapsedMs)
	}

	if c.Backup.Retention < 0 {
		return fmt.Errorf("backup.retention must not be negative, got %d", c.Backup.Retention)
	}

	if c.Session.MaxConcurrent < 1 {
		return fmt.Errorf("session.max_concurrent must be at least 1, got %d", c.Session.MaxConcurrent)
	}
	if c.Session.MaxActiveTasksPerScope < 0 {
		return fmt.Errorf("session.max_active_tasks_per_scope must not be negative, got %d",
			c.Session.MaxActiveTasksPerScope)
	}

	if c.Tasks.MaxDepth < 1 {
		return fmt.Errorf("tasks.max_depth must be at least 1, got %d", c.Tasks.MaxDepth)
	}
	if c.Tasks.MaxChildren < 0 {
		return fmt.Errorf("tasks.max_children must not be negative, got %d", c.Tasks.MaxChildren)
	}

	if !validLogLevels[strings.ToUpper(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of DEBUG, INFO, WARN, ERROR, got %q", c.Logging.Level)
	}

	return nil
}
