// Package account persists per-account security state: email verification,
// lock status, failure counters, and lock expiry.
//
// # Lockout state machine
//
// OPEN -> LOCKED(timed) -> OPEN happens automatically: the fifth consecutive
// failure locks the account for the configured duration, and the first lock
// check after expiry clears both the lock and the failure counter. OPEN or
// LOCKED -> SUSPENDED is administrator-only and never auto-reverses here.
//
// # Architecture boundaries
//
// This package owns account state reads and writes, keyed by lower-cased
// email. When to record a failure or success is decided by the Service.
//
// # What this package must NOT do
//
//   - Store credentials or session data.
//   - Shorten a pre-existing lock on a failed attempt.
//   - Import the root secureauth package.
package account
