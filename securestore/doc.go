// Package securestore provides encryption-at-rest on top of the key-value
// store, with an optional hardened secret slot for key material.
//
// # Key management
//
// One 32-byte master key exists per installation, created lazily on first use
// from the device fingerprint, the current time, and a random token. It lives
// in the hardened [SecretStore] when one is configured; otherwise it is sealed
// under a wrapping key derived from the device fingerprint (HKDF-SHA256) and
// kept in the general store. Retrieval is idempotent across calls and process
// restarts.
//
// # Encryption
//
// Values are JSON-encoded and sealed with AES-256-GCM, persisted as
// base64(nonce || ciphertext). Tampered or truncated blobs fail with
// [ErrIntegrity]; decryption never returns corrupted plaintext.
//
// # Architecture boundaries
//
// This package owns key lifecycle and the seal/open transform. What gets
// stored, and when, is decided by session and the Service.
//
// # What this package must NOT do
//
//   - Expose raw key material to callers.
//   - Fall back to unauthenticated encryption under any failure mode.
package securestore
