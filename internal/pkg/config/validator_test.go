package config

import (
	"testing"
	"time"
)

func TestValidateCronSchedule(t *testing.T) {
	valid := []string{
		"30 7 * * 1-5",
		"0 */6 * * *",
		"15 9,16 * * *",
		"* * * * *",
	}
	for _, schedule := range valid {
		if err := ValidateCronSchedule(schedule); err != nil {
			t.Errorf("ValidateCronSchedule(%q) = %v, want nil", schedule, err)
		}
	}

	invalid := []string{
		"",
		"not a cron",
		"60 * * * *",
		"* * * *",
		"30 7 * * 1-5 2026",
	}
	for _, schedule := range invalid {
		if err := ValidateCronSchedule(schedule); err == nil {
			t.Errorf("ValidateCronSchedule(%q) = nil, want error", schedule)
		}
	}
}

func TestValidateTimezone(t *testing.T) {
	valid := []string{"UTC", "America/New_York", "Asia/Shanghai", "Europe/London"}
	for _, tz := range valid {
		if err := ValidateTimezone(tz); err != nil {
			t.Errorf("ValidateTimezone(%q) = %v, want nil", tz, err)
		}
	}

	invalid := []string{"", "Mars/Olympus", "+08:00", "Eastern"}
	for _, tz := range invalid {
		if err := ValidateTimezone(tz); err == nil {
			t.Errorf("ValidateTimezone(%q) = nil, want error", tz)
		}
	}
}

func TestValidateDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		min      time.Duration
		max      time.Duration
		wantErr  bool
	}{
		{"within range", 10 * time.Minute, time.Minute, time.Hour, false},
		{"at minimum", time.Minute, time.Minute, time.Hour, false},
		{"at maximum", time.Hour, time.Minute, time.Hour, false},
		{"below minimum", 10 * time.Second, time.Minute, time.Hour, true},
		{"above maximum", 2 * time.Hour, time.Minute, time.Hour, true},
		{"inverted range", time.Minute, time.Hour, time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDuration(tt.duration, tt.min, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDuration(%v, %v, %v) error = %v, wantErr %v",
					tt.duration, tt.min, tt.max, err, tt.wantErr)
			}
		})
	}
}

func TestValidateIntRange(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		min     int
		max     int
		wantErr bool
	}{
		{"within range", 4, 1, 8, false},
		{"at minimum", 1, 1, 8, false},
		{"at maximum", 8, 1, 8, false},
		{"below minimum", 0, 1, 8, true},
		{"above maximum", 9, 1, 8, true},
		{"inverted range", 4, 8, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIntRange(tt.value, tt.min, tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIntRange(%d, %d, %d) error = %v, wantErr %v",
					tt.value, tt.min, tt.max, err, tt.wantErr)
			}
		})
	}
}
