// Package internal holds shared primitives used across secureauth packages:
// random byte, token, and salt generation.
//
// # Architecture boundaries
//
// This package owns entropy access only. Hashing, encryption, and persistence
// belong to the password, securestore, and sibling domain packages.
//
// # What this package must NOT do
//
//   - Import any other secureauth package.
//   - Perform I/O beyond reading the platform RNG.
package internal
