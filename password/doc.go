// Package password implements password hashing and verification with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Work-factor parameters travel inside the encoded hash, so stored credentials
// survive future parameter upgrades: [Hasher.NeedsRehash] reports whether a
// stored hash was produced with weaker parameters than the current config, and
// the caller can re-hash on the next successful verification.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy and lockout
// decisions are enforced by the Service.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other secureauth package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
