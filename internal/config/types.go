package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the root daemon configuration.
//
// Accepted formats: YAML (.yaml/.yml) or JSON. Unknown fields are rejected
// so typos fail loudly at load time.
type Config struct {
	Schedule ScheduleConfig `json:"schedule"`
	Task     TaskConfig     `json:"task"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
	Notify   NotifyConfig   `json:"notify,omitempty"`
	History  HistoryConfig  `json:"history,omitempty"`
}

// ScheduleConfig controls the daily trigger.
//
// At is immutable after startup: a hot-reloaded change to it is logged and
// ignored until restart.
type ScheduleConfig struct {
	// At is the trigger time-of-day, HH:MM 24-hour, host-local time.
	At string `json:"at"`

	// RunImmediately fires the task once synchronously on startup, before
	// the loop starts. A nil pointer means the default (true), matching an
	// explicit false apart.
	RunImmediately *bool `json:"run_immediately,omitempty"`

	// PollInterval is a Go duration string; empty means "30s".
	PollInterval string `json:"poll_interval,omitempty"`
}

// TaskConfig describes the command executed on each firing.
type TaskConfig struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
	Workdir string   `json:"workdir,omitempty"`

	// Timeout is a Go duration string; empty or "0s" disables the per-run
	// timeout.
	Timeout string `json:"timeout,omitempty"`
}

type LoggingConfig struct {
	Level string `json:"level,omitempty"`

	// Console is a pointer so "omitted" (default true) and an explicit
	// false can be told apart.
	Console *bool `json:"console,omitempty"`

	File LoggingFileConfig `json:"file,omitempty"`
}

type LoggingFileConfig struct {
	Enabled    bool   `json:"enabled,omitempty"`
	Path       string `json:"path,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
}

// NotifyConfig controls the failure webhook.
type NotifyConfig struct {
	Enabled    bool   `json:"enabled,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty"`
	Timeout    string `json:"timeout,omitempty"` // Go duration string, default "10s"
	RatePerMin int    `json:"rate_per_min,omitempty"`
}

// HistoryConfig controls the run-history store.
// Driver values: "sqlite" or "" / "none" (disabled).
type HistoryConfig struct {
	Driver string `json:"driver,omitempty"`
	Path   string `json:"path,omitempty"`
	Keep   int    `json:"keep,omitempty"`
}

func (c *ScheduleConfig) RunImmediatelyOrDefault() bool {
	if c.RunImmediately == nil {
		return true
	}
	return *c.RunImmediately
}

func (c *LoggingConfig) ConsoleOrDefault() bool {
	if c.Console == nil {
		return true
	}
	return *c.Console
}

// Validate checks the fields the daemon cannot start without. Duration
// strings are validated here so a malformed config fails at load, not at
// first use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Schedule.At) == "" {
		return errors.New("schedule.at is required (HH:MM, host-local time)")
	}
	if _, err := DurationField("schedule.poll_interval", c.Schedule.PollInterval, 0); err != nil {
		return err
	}
	if strings.TrimSpace(c.Task.Command) == "" {
		return errors.New("task.command is required")
	}
	if _, err := DurationField("task.timeout", c.Task.Timeout, 0); err != nil {
		return err
	}
	if c.Notify.Enabled && strings.TrimSpace(c.Notify.WebhookURL) == "" {
		return errors.New("notify.webhook_url is required when notify.enabled")
	}
	if _, err := DurationField("notify.timeout", c.Notify.Timeout, 0); err != nil {
		return err
	}
	switch d := strings.ToLower(strings.TrimSpace(c.History.Driver)); d {
	case "", "none", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("history.driver: unknown driver %q", d)
	}
	if c.History.Keep < 0 {
		return errors.New("history.keep must be >= 0")
	}
	return nil
}

// PollIntervalOrDefault returns the parsed poll interval, defaulting to 30s.
// Call Validate() first; a malformed value here falls back to the default.
func (c *ScheduleConfig) PollIntervalOrDefault() time.Duration {
	d, err := DurationField("schedule.poll_interval", c.PollInterval, 30*time.Second)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
