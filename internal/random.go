package internal

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	tokenSize = 32
	saltSize  = 16
)

// Bytes returns n cryptographically random bytes.
func Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("entropy source unavailable: %w", err)
	}
	return b, nil
}

// Token returns a fresh 32-byte random value encoded as 64 hex characters.
// Values are independent across calls; collisions are cryptographically negligible.
func Token() (string, error) {
	b, err := Bytes(tokenSize)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Salt returns a fresh 16-byte random value encoded as 32 hex characters.
func Salt() (string, error) {
	b, err := Bytes(saltSize)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
