// Package secureauth is the credential and session security core for an
// installation-scoped application: account sign-up and sign-in, a single
// encrypted session slot, password hashing, encryption-at-rest for secrets,
// device identity, per-account lockout, and time-windowed anomaly detection
// over a bounded security event log.
//
// The package is designed for a single logical actor per installation: all
// operations are I/O-bound calls against a key-value store and an optional
// hardened secret slot, and every method tolerates redundant or overlapping
// invocation (background heartbeats, validity polls, foreground sign-in/out).
//
// # Architecture boundaries
//
// secureauth is the public surface. It exposes [Service], [Builder], [Config],
// value types, and sentinel errors. Domain mechanics live in subpackages
// (password, securestore, device, session, account, events); async audit
// dispatch lives under internal/ and is never exported directly.
//
// # What this package must NOT do
//
//   - Expose Redis clients, key layouts, or sealed-blob formats in its public API.
//   - Verify credentials itself — identity proof belongs to the injected
//     [IdentityBackend]; this core owns everything around it.
//   - Perform I/O outside of Service methods (construction via Builder is
//     allocation-only until Build).
package secureauth
