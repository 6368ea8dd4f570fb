package events

import (
	"testing"
	"time"
)

func at(base time.Time, offset time.Duration, eventType string) Event {
	return Event{Type: eventType, Timestamp: base.Add(offset)}
}

func TestDetectTable(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base.Add(time.Minute)
	cfg := DefaultDetectConfig()

	cases := []struct {
		name       string
		events     []Event
		suspicious bool
		cooldown   time.Duration
	}{
		{
			name:   "empty log",
			events: nil,
		},
		{
			name: "two failures below threshold",
			events: []Event{
				at(base, 50*time.Second, TypeLoginFailed),
				at(base, 55*time.Second, TypeLoginFailed),
			},
		},
		{
			name: "three failures within window",
			events: []Event{
				at(base, 10*time.Second, TypeLoginFailed),
				at(base, 30*time.Second, TypeLoginFailed),
				at(base, 50*time.Second, TypeLoginFailed),
			},
			suspicious: true,
			cooldown:   5 * time.Minute,
		},
		{
			name: "three failures but one outside window",
			events: []Event{
				at(base, -30*time.Second, TypeLoginFailed),
				at(base, 30*time.Second, TypeLoginFailed),
				at(base, 50*time.Second, TypeLoginFailed),
			},
		},
		{
			name: "ten attempts within the hour",
			events: []Event{
				at(base, -50*time.Minute, TypeLoginAttempt),
				at(base, -45*time.Minute, TypeLoginAttempt),
				at(base, -40*time.Minute, TypeLoginFailed),
				at(base, -35*time.Minute, TypeLoginAttempt),
				at(base, -30*time.Minute, TypeLoginAttempt),
				at(base, -25*time.Minute, TypeLoginAttempt),
				at(base, -20*time.Minute, TypeLoginFailed),
				at(base, -15*time.Minute, TypeLoginAttempt),
				at(base, -10*time.Minute, TypeLoginAttempt),
				at(base, -5*time.Minute, TypeLoginAttempt),
			},
			suspicious: true,
			cooldown:   time.Hour,
		},
		{
			name: "successes never count",
			events: []Event{
				at(base, 40*time.Second, TypeLoginSuccess),
				at(base, 45*time.Second, TypeLoginSuccess),
				at(base, 50*time.Second, TypeLoginSuccess),
				at(base, 55*time.Second, TypeLoginSuccess),
			},
		},
		{
			name: "rapid rule wins over volume rule",
			events: []Event{
				at(base, -50*time.Minute, TypeLoginAttempt),
				at(base, -45*time.Minute, TypeLoginAttempt),
				at(base, -40*time.Minute, TypeLoginAttempt),
				at(base, -35*time.Minute, TypeLoginAttempt),
				at(base, -30*time.Minute, TypeLoginAttempt),
				at(base, -25*time.Minute, TypeLoginAttempt),
				at(base, -20*time.Minute, TypeLoginAttempt),
				at(base, 10*time.Second, TypeLoginFailed),
				at(base, 30*time.Second, TypeLoginFailed),
				at(base, 50*time.Second, TypeLoginFailed),
			},
			suspicious: true,
			cooldown:   5 * time.Minute,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Detect(tc.events, now, cfg)
			if got.Suspicious != tc.suspicious {
				t.Fatalf("Suspicious = %v, want %v (%+v)", got.Suspicious, tc.suspicious, got)
			}
			if tc.suspicious && got.Cooldown != tc.cooldown {
				t.Fatalf("Cooldown = %v, want %v", got.Cooldown, tc.cooldown)
			}
			if tc.suspicious && got.Reason == "" {
				t.Fatal("suspicious verdict must carry a reason")
			}
		})
	}
}
