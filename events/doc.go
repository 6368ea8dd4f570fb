// Package events keeps the append-only, size-bounded security event log and
// runs time-windowed anomaly detection over it.
//
// # Storage
//
// Events are JSON entries in one list, newest first, trimmed to the most
// recent 100 on every append. Insertion order is append order; time-window
// queries rely on it.
//
// # Detection
//
// Two independent trailing-window rules run on every relevant append and on
// demand: rapid failures (>= 3 login_failed in 60s, 5 minute cooldown) and
// high volume (>= 10 login_attempt/login_failed in 1 hour, 1 hour cooldown).
// Results are recomputed per call — the windows are time-relative, so a
// cached verdict would go stale.
//
// # Architecture boundaries
//
// This package owns event persistence, trimming, anonymization, and the
// detection rules. When events are emitted, and what happens on a suspicious
// verdict, is decided by the Service.
//
// # What this package must NOT do
//
//   - Mutate an event after append (anonymization rewrites only the email
//     detail, as part of account deletion).
//   - Import the root secureauth package.
package events
