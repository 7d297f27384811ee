package worker

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// globalTestMetrics is shared across tests because promauto registers
// globally; creating a second WorkerMetrics in the same process panics.
var globalTestMetrics = NewWorkerMetrics()

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CronSchedule != "30 7 * * 1-5" {
		t.Errorf("CronSchedule = %q, want '30 7 * * 1-5'", cfg.CronSchedule)
	}
	if cfg.Timezone != "America/New_York" {
		t.Errorf("Timezone = %q, want 'America/New_York'", cfg.Timezone)
	}
	if cfg.FeedURL != "https://feeds.a.dj.com/rss/WSJcomUSBusiness.xml" {
		t.Errorf("unexpected FeedURL %q", cfg.FeedURL)
	}
	if cfg.MaxItems != 4 {
		t.Errorf("MaxItems = %d, want 4", cfg.MaxItems)
	}
	if cfg.MAWindow != 50 {
		t.Errorf("MAWindow = %d, want 50", cfg.MAWindow)
	}
	if cfg.RunTimeout != 10*time.Minute {
		t.Errorf("RunTimeout = %v, want 10m", cfg.RunTimeout)
	}
	if cfg.HealthPort != 9091 {
		t.Errorf("HealthPort = %d, want 9091", cfg.HealthPort)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default configuration should validate, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WorkerConfig)
		want   string
	}{
		{"invalid cron", func(c *WorkerConfig) { c.CronSchedule = "not a cron" }, "cron schedule"},
		{"invalid timezone", func(c *WorkerConfig) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"feed url scheme", func(c *WorkerConfig) { c.FeedURL = "ftp://example.com/feed" }, "feed url"},
		{"feed url no host", func(c *WorkerConfig) { c.FeedURL = "https://" }, "feed url"},
		{"max items too high", func(c *WorkerConfig) { c.MaxItems = 9 }, "max items"},
		{"max items zero", func(c *WorkerConfig) { c.MaxItems = 0 }, "max items"},
		{"ma window unsupported", func(c *WorkerConfig) { c.MAWindow = 100 }, "ma window"},
		{"run timeout too short", func(c *WorkerConfig) { c.RunTimeout = 10 * time.Second }, "run timeout"},
		{"privileged health port", func(c *WorkerConfig) { c.HealthPort = 80 }, "health port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CronSchedule = "bad"
	cfg.MaxItems = 100
	cfg.MAWindow = 7

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	for _, want := range []string{"cron schedule", "max items", "ma window"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("aggregated error %q missing %q", err.Error(), want)
		}
	}
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("PULSE_CRON_SCHEDULE", "0 8 * * 1-5")
	t.Setenv("WORKER_TIMEZONE", "UTC")
	t.Setenv("PULSE_FEED_URL", "https://example.com/markets.rss")
	t.Setenv("PULSE_MAX_ITEMS", "6")
	t.Setenv("PULSE_MA_WINDOW", "200")
	t.Setenv("PULSE_RUN_TIMEOUT", "20m")
	t.Setenv("WORKER_HEALTH_PORT", "9191")

	var buf bytes.Buffer
	cfg, err := LoadConfigFromEnv(testLogger(&buf), globalTestMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv returned error: %v", err)
	}

	if cfg.CronSchedule != "0 8 * * 1-5" {
		t.Errorf("CronSchedule = %q", cfg.CronSchedule)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.FeedURL != "https://example.com/markets.rss" {
		t.Errorf("FeedURL = %q", cfg.FeedURL)
	}
	if cfg.MaxItems != 6 {
		t.Errorf("MaxItems = %d", cfg.MaxItems)
	}
	if cfg.MAWindow != 200 {
		t.Errorf("MAWindow = %d", cfg.MAWindow)
	}
	if cfg.RunTimeout != 20*time.Minute {
		t.Errorf("RunTimeout = %v", cfg.RunTimeout)
	}
	if cfg.HealthPort != 9191 {
		t.Errorf("HealthPort = %d", cfg.HealthPort)
	}
	if strings.Contains(buf.String(), "fallback") {
		t.Errorf("expected no fallback warnings, got: %s", buf.String())
	}
}

func TestLoadConfigFromEnvFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("PULSE_CRON_SCHEDULE", "every tuesday")
	t.Setenv("PULSE_MAX_ITEMS", "50")
	t.Setenv("PULSE_MA_WINDOW", "123")
	t.Setenv("PULSE_FEED_URL", "ftp://example.com/feed")

	var buf bytes.Buffer
	cfg, err := LoadConfigFromEnv(testLogger(&buf), globalTestMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv returned error: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.CronSchedule != defaults.CronSchedule {
		t.Errorf("CronSchedule should fall back to default, got %q", cfg.CronSchedule)
	}
	if cfg.MaxItems != defaults.MaxItems {
		t.Errorf("MaxItems should fall back to default, got %d", cfg.MaxItems)
	}
	if cfg.MAWindow != defaults.MAWindow {
		t.Errorf("MAWindow should fall back to default, got %d", cfg.MAWindow)
	}
	if cfg.FeedURL != defaults.FeedURL {
		t.Errorf("FeedURL should fall back to default, got %q", cfg.FeedURL)
	}

	logs := buf.String()
	if !strings.Contains(logs, "configuration fallback applied") {
		t.Errorf("expected fallback warnings in logs, got: %s", logs)
	}
}

func TestLoadConfigFromEnvUnsetUsesDefaults(t *testing.T) {
	for _, key := range []string{
		"PULSE_CRON_SCHEDULE", "WORKER_TIMEZONE", "PULSE_FEED_URL",
		"PULSE_MAX_ITEMS", "PULSE_MA_WINDOW", "PULSE_RUN_TIMEOUT",
		"WORKER_HEALTH_PORT",
	} {
		t.Setenv(key, "")
	}

	var buf bytes.Buffer
	cfg, err := LoadConfigFromEnv(testLogger(&buf), globalTestMetrics)
	if err != nil {
		t.Fatalf("LoadConfigFromEnv returned error: %v", err)
	}

	if *cfg != DefaultConfig() {
		t.Errorf("expected defaults, got %+v", *cfg)
	}
}
