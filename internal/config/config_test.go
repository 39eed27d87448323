package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const validYAML = `
schedule:
  at: "14:30"
  run_immediately: false
  poll_interval: "10s"
task:
  command: "/usr/local/bin/report"
  args: ["--daily"]
  timeout: "5m"
logging:
  level: "DEBUG"
history:
  driver: "sqlite"
  path: "./dayrun.db"
  keep: 100
`

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	m := NewManager(writeFile(t, "config.yaml", validYAML))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Schedule.At != "14:30" {
		t.Fatalf("schedule.at = %q, want 14:30", cfg.Schedule.At)
	}
	if cfg.Schedule.RunImmediatelyOrDefault() {
		t.Fatal("run_immediately = true, want explicit false")
	}
	if got := cfg.Schedule.PollIntervalOrDefault(); got != 10*time.Second {
		t.Fatalf("poll_interval = %v, want 10s", got)
	}
	if cfg.Task.Command != "/usr/local/bin/report" || len(cfg.Task.Args) != 1 {
		t.Fatalf("unexpected task config: %+v", cfg.Task)
	}
	if m.Get() != cfg {
		t.Fatal("Get() did not return the committed config")
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	m := NewManager(writeFile(t, "config.json",
		`{"schedule":{"at":"06:00"},"task":{"command":"backup.sh"}}`))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Schedule.RunImmediatelyOrDefault() {
		t.Fatal("run_immediately default should be true")
	}
	if got := cfg.Schedule.PollIntervalOrDefault(); got != 30*time.Second {
		t.Fatalf("poll_interval default = %v, want 30s", got)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	m := NewManager(writeFile(t, "config.yaml", `
schedule:
  at: "14:30"
  tz: "Asia/Shanghai"
task:
  command: "x"
`))
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing at",
			mutate:  func(c *Config) { c.Schedule.At = "" },
			wantErr: "schedule.at",
		},
		{
			name:    "missing command",
			mutate:  func(c *Config) { c.Task.Command = " " },
			wantErr: "task.command",
		},
		{
			name:    "bad poll interval",
			mutate:  func(c *Config) { c.Schedule.PollInterval = "soon" },
			wantErr: "schedule.poll_interval",
		},
		{
			name: "webhook required",
			mutate: func(c *Config) {
				c.Notify.Enabled = true
				c.Notify.WebhookURL = ""
			},
			wantErr: "notify.webhook_url",
		},
		{
			name:    "unknown history driver",
			mutate:  func(c *Config) { c.History.Driver = "postgres" },
			wantErr: "history.driver",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Schedule: ScheduleConfig{At: "14:30"},
				Task:     TaskConfig{Command: "run.sh"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsNonStringYAMLKeys(t *testing.T) {
	t.Parallel()
	m := NewManager(writeFile(t, "config.yaml", `
schedule:
  at: "14:30"
task:
  command: "x"
  1: "numeric key"
`))
	_, err := m.Load()
	if err == nil {
		t.Fatal("expected error for non-string mapping key")
	}
	if !strings.Contains(err.Error(), "non-string") {
		t.Fatalf("error %q does not mention non-string keys", err)
	}
}

func TestDurationField(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		def     time.Duration
		want    time.Duration
		wantErr string
	}{
		{name: "empty uses default", raw: "", def: 30 * time.Second, want: 30 * time.Second},
		{name: "blank uses default", raw: "  ", def: time.Minute, want: time.Minute},
		{name: "zero uses default", raw: "0s", def: 10 * time.Second, want: 10 * time.Second},
		{name: "explicit value", raw: "90s", def: time.Minute, want: 90 * time.Second},
		{name: "compound value", raw: "1h15m", def: 0, want: 75 * time.Minute},
		{name: "malformed", raw: "soon", wantErr: "invalid duration"},
		{name: "bare number", raw: "30", wantErr: "invalid duration"},
		{name: "negative", raw: "-5s", wantErr: "negative duration"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := DurationField("schedule.poll_interval", tt.raw, tt.def)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("DurationField(%q) = %v, want error", tt.raw, got)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error %q does not mention %q", err, tt.wantErr)
				}
				if !strings.Contains(err.Error(), "schedule.poll_interval") {
					t.Fatalf("error %q does not name the field", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DurationField(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("DurationField(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestReloadPublishesChange(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", validYAML)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	got := make(chan *Config, 1)
	m.SetOnChange(func(c *Config) { got <- c })

	// Unchanged content must not republish.
	m.reload()
	select {
	case <-got:
		t.Fatal("unchanged config was republished")
	default:
	}

	next := strings.Replace(validYAML, `level: "DEBUG"`, `level: "WARN"`, 1)
	if err := os.WriteFile(path, []byte(next), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	m.reload()

	select {
	case cfg := <-got:
		if cfg.Logging.Level != "WARN" {
			t.Fatalf("reloaded level = %q, want WARN", cfg.Logging.Level)
		}
	default:
		t.Fatal("changed config was not published")
	}
}
