// Package session manages the single encrypted session slot for an
// installation: creation, persistence, lazy expiry, and the last-activity
// heartbeat.
//
// # Lifecycle
//
// NONE -> ACTIVE (Create + Save) -> EXPIRED (lazy, detected on Get) or
// CLEARED (Clear). At most one session is active per installation; Save is
// last-writer-wins on the slot.
//
// # Architecture boundaries
//
// This package owns the [Session] model and its persisted form (sealed via
// securestore). It does NOT verify credentials or decide when a session may
// be created — those responsibilities belong to the Service.
//
// # What this package must NOT do
//
//   - Import the root secureauth package (no upward imports).
//   - Persist session fields outside the sealed blob.
//   - Keep more than one session slot.
package session
