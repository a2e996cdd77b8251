package engine

import "time"

// Default thresholds. All are tunable per deployment; these match a
// reading-room installation with a 1 Hz detector feed.
const (
	DefaultStabilityWindow  = 20 * time.Second
	DefaultCampingThreshold = 120 * time.Minute
	DefaultNoShowThreshold  = 20 * time.Minute
	DefaultReturnGrace      = 5 * time.Minute
	DefaultEmptyRelease     = 1 * time.Minute
	DefaultCampedRelease    = 3 * time.Minute
)

// Config holds every duration the engine evaluates against. Fixed at
// startup; Validate rejects non-positive values before the engine is
// allowed to initialize.
type Config struct {
	// StabilityWindow is how long a candidate state must persist unchanged
	// before it is promoted to the confirmed state.
	StabilityWindow time.Duration

	// CampingThreshold is how long a seat may stay Camped before an
	// overstay alert fires.
	CampingThreshold time.Duration

	// NoShowThreshold is how long a reservation may sit unexercised
	// (never occupied) before a no-show alert fires.
	NoShowThreshold time.Duration

	// ReturnGrace is how long a previously occupied, reserved seat may sit
	// Empty before a pending-return alert fires.
	ReturnGrace time.Duration

	// EmptyRelease is the reservation deadline seeded after a seat is
	// confirmed Empty.
	EmptyRelease time.Duration

	// CampedRelease is the reservation deadline seeded after a seat is
	// confirmed Camped.
	CampedRelease time.Duration
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		StabilityWindow:  DefaultStabilityWindow,
		CampingThreshold: DefaultCampingThreshold,
		NoShowThreshold:  DefaultNoShowThreshold,
		ReturnGrace:      DefaultReturnGrace,
		EmptyRelease:     DefaultEmptyRelease,
		CampedRelease:    DefaultCampedRelease,
	}
}

// Validate checks that every duration is strictly positive. The first
// offending field is reported; the engine must not be constructed from an
// invalid config.
func (c Config) Validate() error {
	checks := []struct {
		field string
		value time.Duration
	}{
		{"stability window", c.StabilityWindow},
		{"camping threshold", c.CampingThreshold},
		{"no-show threshold", c.NoShowThreshold},
		{"return grace", c.ReturnGrace},
		{"empty release", c.EmptyRelease},
		{"camped release", c.CampedRelease},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return NewConfigError(check.field, "duration must be positive")
		}
	}
	return nil
}
