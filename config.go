package secureauth

import (
	"errors"
	"time"

	"github.com/MrEthical07/secureauth/password"
)

// Config defines the tuning surface of the Service.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable.
type Config struct {
	// KeyPrefix namespaces every persisted key for this installation.
	KeyPrefix string

	Session  SessionConfig
	Lockout  LockoutConfig
	Anomaly  AnomalyConfig
	Events   EventsConfig
	Password password.Config
	Reset    ResetConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the single session slot.
type SessionConfig struct {
	// Duration is the session lifetime from creation to expiry.
	Duration time.Duration
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls the per-account lockout state machine.
type LockoutConfig struct {
	// Threshold is the consecutive-failure count that triggers a timed lock.
	Threshold int
	// Duration is the length of a timed lock.
	Duration time.Duration
}

/*
====================================
ANOMALY CONFIG
====================================
*/

// AnomalyConfig controls time-windowed suspicious-activity detection.
type AnomalyConfig struct {
	RapidThreshold int
	RapidWindow    time.Duration
	RapidCooldown  time.Duration

	VolumeThreshold int
	VolumeWindow    time.Duration
	VolumeCooldown  time.Duration

	// EnforceCooldown persists detection cooldowns and rejects attempts made
	// inside the window. Off by default: the reference behavior computes
	// cooldowns but gates only on the at-call verdict, and enabling true
	// enforcement is a reviewable policy change.
	EnforceCooldown bool
}

/*
====================================
EVENT LOG CONFIG
====================================
*/

// EventsConfig controls the bounded security event log.
type EventsConfig struct {
	// Cap is the number of retained events; older entries are trimmed.
	Cap int
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// ResetConfig controls signed password-reset tokens.
type ResetConfig struct {
	Enabled  bool
	TokenTTL time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls async audit fan-out to an external sink.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// MaskEmails redacts address fields before events reach the sink, for
	// destinations that must not receive raw addresses.
	MaskEmails bool
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		KeyPrefix: "sa",
		Session: SessionConfig{
			Duration: 7 * 24 * time.Hour,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  time.Hour,
		},
		Anomaly: AnomalyConfig{
			RapidThreshold:  3,
			RapidWindow:     time.Minute,
			RapidCooldown:   5 * time.Minute,
			VolumeThreshold: 10,
			VolumeWindow:    time.Hour,
			VolumeCooldown:  time.Hour,
		},
		Events: EventsConfig{
			Cap: 100,
		},
		Password: password.DefaultConfig(),
		Reset: ResetConfig{
			Enabled:  true,
			TokenTTL: 15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.Session.Duration <= 0 {
		return errors.New("session duration must be positive")
	}
	if cfg.Lockout.Threshold <= 0 {
		return errors.New("lockout threshold must be positive")
	}
	if cfg.Lockout.Duration <= 0 {
		return errors.New("lockout duration must be positive")
	}
	if cfg.Anomaly.RapidThreshold <= 0 || cfg.Anomaly.VolumeThreshold <= 0 {
		return errors.New("anomaly thresholds must be positive")
	}
	if cfg.Anomaly.RapidWindow <= 0 || cfg.Anomaly.VolumeWindow <= 0 {
		return errors.New("anomaly windows must be positive")
	}
	if cfg.Events.Cap <= 0 {
		return errors.New("event log cap must be positive")
	}
	if cfg.Reset.Enabled && cfg.Reset.TokenTTL <= 0 {
		return errors.New("reset token ttl must be positive")
	}
	return nil
}
