package events

import "time"

// DetectConfig tunes the anomaly rules.
type DetectConfig struct {
	RapidThreshold int
	RapidWindow    time.Duration
	RapidCooldown  time.Duration

	VolumeThreshold int
	VolumeWindow    time.Duration
	VolumeCooldown  time.Duration
}

// DefaultDetectConfig returns the standard thresholds: 3 failures in 60
// seconds (5 minute cooldown) and 10 attempts in one hour (1 hour cooldown).
func DefaultDetectConfig() DetectConfig {
	return DetectConfig{
		RapidThreshold:  3,
		RapidWindow:     time.Minute,
		RapidCooldown:   5 * time.Minute,
		VolumeThreshold: 10,
		VolumeWindow:    time.Hour,
		VolumeCooldown:  time.Hour,
	}
}

// Verdict reasons reported by Detect.
const (
	ReasonRapidFailures = "rapid failed login attempts"
	ReasonHighVolume    = "unusually high login volume"
)

// Detection is the verdict of one anomaly evaluation.
type Detection struct {
	Suspicious bool
	Reason     string
	Cooldown   time.Duration
}

// Detect evaluates both trailing-window rules over the supplied events at
// instant now. The rules are independent and non-exclusive; rapid failures
// take precedence in the reported reason.
func Detect(evts []Event, now time.Time, cfg DetectConfig) Detection {
	var rapidFailures, recentAttempts int

	for i := range evts {
		e := &evts[i]
		age := now.Sub(e.Timestamp)
		if age < 0 {
			continue
		}

		if e.Type == TypeLoginFailed && age <= cfg.RapidWindow {
			rapidFailures++
		}
		if (e.Type == TypeLoginAttempt || e.Type == TypeLoginFailed) && age <= cfg.VolumeWindow {
			recentAttempts++
		}
	}

	if rapidFailures >= cfg.RapidThreshold {
		return Detection{
			Suspicious: true,
			Reason:     ReasonRapidFailures,
			Cooldown:   cfg.RapidCooldown,
		}
	}
	if recentAttempts >= cfg.VolumeThreshold {
		return Detection{
			Suspicious: true,
			Reason:     ReasonHighVolume,
			Cooldown:   cfg.VolumeCooldown,
		}
	}
	return Detection{}
}
