package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning holds the named, overridable constants of the correlation engine.
// Defaults are deliberately conservative; deployments override them via a
// YAML file rather than code changes.
type Tuning struct {
	// WindowSeconds is the sliding evaluation window on the session's media
	// clock.
	WindowSeconds float64 `yaml:"window_seconds"`

	// IntrusionSubWindowSeconds is how close (in seconds) weapon and
	// unfamiliar-face sightings must be to confirm an intrusion.
	IntrusionSubWindowSeconds float64 `yaml:"intrusion_sub_window_seconds"`

	// CooldownSeconds is how long after all evidence has left the window a
	// scenario waits before resolving. Zero means 2x the window.
	CooldownSeconds float64 `yaml:"cooldown_seconds"`

	// Escalation ladder delays (wall clock).
	FallCheckInDelay     time.Duration `yaml:"fall_check_in_delay"`
	FallNotifyDelay      time.Duration `yaml:"fall_notify_delay"`
	SuspiciousAlertDelay time.Duration `yaml:"suspicious_alert_delay"`

	// Expected activity hours: suspicious-activity detection only applies
	// outside [Start, End). 24-hour local time.
	ExpectedHoursStart int `yaml:"expected_hours_start"`
	ExpectedHoursEnd   int `yaml:"expected_hours_end"`

	// Retention policy for the temporal store.
	RetentionMaxAgeSeconds float64 `yaml:"retention_max_age_seconds"`
	RetentionMaxRecords    int     `yaml:"retention_max_records"`

	// SessionIdleTimeout closes a session with no appends for this long.
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`
}

// DefaultTuning returns the engine defaults.
func DefaultTuning() Tuning {
	return Tuning{
		WindowSeconds:             30,
		IntrusionSubWindowSeconds: 5,
		CooldownSeconds:           0, // 2x window

		FallCheckInDelay:     30 * time.Second,
		FallNotifyDelay:      60 * time.Second,
		SuspiciousAlertDelay: 120 * time.Second,

		ExpectedHoursStart: 7,
		ExpectedHoursEnd:   22,

		RetentionMaxAgeSeconds: 0, // unlimited
		RetentionMaxRecords:    0, // unlimited

		SessionIdleTimeout: 30 * time.Minute,
	}
}

// Cooldown returns the effective cooldown in session seconds.
func (t Tuning) Cooldown() float64 {
	if t.CooldownSeconds > 0 {
		return t.CooldownSeconds
	}
	return 2 * t.WindowSeconds
}

// LoadTuning returns the defaults overlaid with the YAML file at path.
// An empty path returns pure defaults.
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()
	if path == "" {
		return tuning, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return tuning, fmt.Errorf("read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return tuning, fmt.Errorf("parse tuning file: %w", err)
	}

	if tuning.WindowSeconds <= 0 {
		return tuning, fmt.Errorf("window_seconds must be positive, got %v", tuning.WindowSeconds)
	}
	if tuning.IntrusionSubWindowSeconds <= 0 {
		return tuning, fmt.Errorf("intrusion_sub_window_seconds must be positive, got %v", tuning.IntrusionSubWindowSeconds)
	}
	return tuning, nil
}
