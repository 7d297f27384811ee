package worker

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/wang2-lat/my-personal-bloomberg/internal/pkg/config"
)

// Moving-average windows the technical branch supports.
const (
	maWindowShort = 50
	maWindowLong  = 200
)

// WorkerConfig holds the operational settings for the worker process.
//
// Unlike credentials, these are fail-open: an invalid value falls back to
// its default with a warning and a metric, and the worker keeps running.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
type WorkerConfig struct {
	// CronSchedule is the cron expression for pipeline runs.
	// Format: "minute hour day month weekday"
	// Default: "30 7 * * 1-5" (weekdays at 7:30, before the US open)
	CronSchedule string

	// Timezone is the IANA timezone the schedule is evaluated in.
	// Default: "America/New_York"
	Timezone string

	// FeedURL is the RSS feed processed each run.
	// Default: WSJ US Business news feed
	FeedURL string

	// MaxItems caps the news items enriched per run.
	// Range: 1-8
	// Default: 4
	MaxItems int

	// MAWindow is the moving-average window in trading days.
	// Allowed: 50 or 200
	// Default: 50
	MAWindow int

	// RunTimeout bounds a single pipeline run end to end.
	// Range: 1 minute to 1 hour
	// Default: 10 minutes
	RunTimeout time.Duration

	// HealthPort serves the liveness/readiness endpoints.
	// Range: 1024-65535
	// Default: 9091
	HealthPort int
}

// DefaultConfig returns the production defaults: a weekday pre-open run
// in US Eastern time, four items per run, and the short moving-average
// window.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "30 7 * * 1-5",
		Timezone:     "America/New_York",
		FeedURL:      "https://feeds.a.dj.com/rss/WSJcomUSBusiness.xml",
		MaxItems:     4,
		MAWindow:     maWindowShort,
		RunTimeout:   10 * time.Minute,
		HealthPort:   9091,
	}
}

// validateFeedURL accepts absolute http(s) URLs only.
func validateFeedURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid feed URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("feed URL must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("feed URL missing host")
	}
	return nil
}

// validateMAWindow accepts only the two supported windows.
func validateMAWindow(v int) error {
	if v != maWindowShort && v != maWindowLong {
		return fmt.Errorf("moving-average window must be %d or %d, got %d", maWindowShort, maWindowLong, v)
	}
	return nil
}

// Validate checks every field and returns all violations together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := validateFeedURL(c.FeedURL); err != nil {
		errs = append(errs, fmt.Errorf("feed url: %w", err))
	}
	if err := config.ValidateIntRange(c.MaxItems, 1, 8); err != nil {
		errs = append(errs, fmt.Errorf("max items: %w", err))
	}
	if err := validateMAWindow(c.MAWindow); err != nil {
		errs = append(errs, fmt.Errorf("ma window: %w", err))
	}
	if err := config.ValidateDuration(c.RunTimeout, 1*time.Minute, 1*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads the worker configuration from the environment
// with validation and automatic fallback to defaults.
//
// Strategy, per field:
//  1. Start from DefaultConfig()
//  2. Read the environment variable, if set
//  3. Validate the loaded value
//  4. On failure: keep the default, log a warning, record metrics
//
// Environment variables:
//   - PULSE_CRON_SCHEDULE: cron expression (default "30 7 * * 1-5")
//   - WORKER_TIMEZONE: IANA timezone (default "America/New_York")
//   - PULSE_FEED_URL: RSS feed URL
//   - PULSE_MAX_ITEMS: integer 1-8 (default 4)
//   - PULSE_MA_WINDOW: 50 or 200 (default 50)
//   - PULSE_RUN_TIMEOUT: duration 1m-1h (default 10m)
//   - WORKER_HEALTH_PORT: integer 1024-65535 (default 9091)
//
// The error return is always nil; it exists so callers read naturally.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	recordFallback := func(field string, warnings []string) {
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range warnings {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvWithFallback("PULSE_CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	if result.FallbackApplied {
		recordFallback("cron_schedule", result.Warnings)
	}

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		recordFallback("timezone", result.Warnings)
	}

	result = config.LoadEnvWithFallback("PULSE_FEED_URL", cfg.FeedURL, validateFeedURL)
	cfg.FeedURL = result.Value.(string)
	if result.FallbackApplied {
		recordFallback("feed_url", result.Warnings)
	}

	result = config.LoadEnvInt("PULSE_MAX_ITEMS", cfg.MaxItems, func(v int) error {
		return config.ValidateIntRange(v, 1, 8)
	})
	cfg.MaxItems = result.Value.(int)
	if result.FallbackApplied {
		recordFallback("max_items", result.Warnings)
	}

	result = config.LoadEnvInt("PULSE_MA_WINDOW", cfg.MAWindow, validateMAWindow)
	cfg.MAWindow = result.Value.(int)
	if result.FallbackApplied {
		recordFallback("ma_window", result.Warnings)
	}

	result = config.LoadEnvDuration("PULSE_RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 1*time.Hour)
	})
	cfg.RunTimeout = result.Value.(time.Duration)
	if result.FallbackApplied {
		recordFallback("run_timeout", result.Warnings)
	}

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		recordFallback("health_port", result.Warnings)
	}

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
