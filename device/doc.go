// Package device derives a stable per-installation device fingerprint from
// static device attributes, with a persisted random fallback identifier.
//
// # Derivation
//
// The fingerprint is the hex-encoded SHA-256 of the attribute tuple reported
// by a [Source]. It is cached in memory for the process lifetime and persisted
// to the key-value store so restarts observe the same value. If the attribute
// source is unavailable, a previously persisted random identifier is reused;
// only when none exists is a fresh one minted and persisted.
//
// # Architecture boundaries
//
// This package owns identifier derivation and caching. Key management and
// encryption built on top of the fingerprint belong to securestore.
//
// # What this package must NOT do
//
//   - Import securestore, session, or any other secureauth domain package.
//   - Regenerate a fallback identifier once one has been persisted.
package device
