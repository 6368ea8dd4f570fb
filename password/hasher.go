package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	algorithmID           = "argon2id"
)

// ErrMalformedHash is returned when a stored hash cannot be parsed as a PHC string.
var ErrMalformedHash = errors.New("malformed password hash")

// Config holds Argon2id work-factor parameters.
//
// Config instances are intended to be configured during initialization and then
// treated as immutable.
type Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultConfig returns the baseline Argon2id parameters (64 MB, t=3, p=2).
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher derives and verifies Argon2id password hashes.
type Hasher struct {
	config Config
}

type phcFields struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// NewHasher validates cfg and returns a ready Hasher.
func NewHasher(cfg Config) (*Hasher, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Hasher{config: cfg}, nil
}

// Hash derives an Argon2id hash of password under a fresh random salt and
// returns it in PHC string format.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("salt generation failed: %w", err)
	}

	return h.hashWithSalt(password, salt), nil
}

// HashWithSalt derives a hash under a caller-supplied salt. Intended for
// deterministic re-derivation during verification flows; normal callers
// should use Hash.
func (h *Hasher) HashWithSalt(password string, salt []byte) (string, error) {
	if len(salt) < int(minSaltLength) {
		return "", errors.New("salt must be at least 16 bytes")
	}
	return h.hashWithSalt(password, salt), nil
}

func (h *Hasher) hashWithSalt(password string, salt []byte) string {
	key := argon2.IDKey(
		[]byte(password),
		salt,
		h.config.Time,
		h.config.Memory,
		h.config.Parallelism,
		h.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	)
}

// Verify recomputes the hash of password with the parameters and salt embedded
// in encodedHash and compares in constant time. A mismatch returns (false, nil);
// an error is returned only for malformed input.
func (h *Hasher) Verify(password, encodedHash string) (bool, error) {
	fields, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(password),
		fields.salt,
		fields.time,
		fields.memory,
		fields.parallelism,
		uint32(len(fields.hash)),
	)

	return subtle.ConstantTimeCompare(computed, fields.hash) == 1, nil
}

// NeedsRehash reports whether encodedHash was produced with weaker parameters
// than the Hasher's current configuration.
func (h *Hasher) NeedsRehash(encodedHash string) (bool, error) {
	fields, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}

	if h.config.Memory > fields.memory {
		return true, nil
	}
	if h.config.Time > fields.time {
		return true, nil
	}
	if h.config.Parallelism > fields.parallelism {
		return true, nil
	}
	if h.config.KeyLength != uint32(len(fields.hash)) {
		return true, nil
	}

	return false, nil
}

func parsePHC(encodedHash string) (*phcFields, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrMalformedHash
	}
	if parts[1] != algorithmID {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, parts[1])
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, fmt.Errorf("%w: missing version", ErrMalformedHash)
	}
	v, err := strconv.Atoi(version)
	if err != nil || v != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version %q", ErrMalformedHash, version)
	}

	fields := &phcFields{}
	if err := parseParams(parts[3], fields); err != nil {
		return nil, err
	}

	fields.salt, err = base64.StdEncoding.DecodeString(parts[4])
	if err != nil || len(fields.salt) < int(minSaltLength) {
		return nil, fmt.Errorf("%w: invalid salt", ErrMalformedHash)
	}
	fields.hash, err = base64.StdEncoding.DecodeString(parts[5])
	if err != nil || len(fields.hash) == 0 {
		return nil, fmt.Errorf("%w: invalid hash", ErrMalformedHash)
	}

	return fields, nil
}

func parseParams(part string, fields *phcFields) error {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return fmt.Errorf("%w: invalid parameter block", ErrMalformedHash)
	}

	var memorySet, timeSet, parallelismSet bool
	for _, pair := range pairs {
		k, val, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("%w: invalid parameter entry %q", ErrMalformedHash, pair)
		}
		switch k {
		case "m":
			v, err := strconv.ParseUint(val, 10, 32)
			if err != nil || v == 0 {
				return fmt.Errorf("%w: invalid memory parameter", ErrMalformedHash)
			}
			fields.memory = uint32(v)
			memorySet = true
		case "t":
			v, err := strconv.ParseUint(val, 10, 32)
			if err != nil || v == 0 {
				return fmt.Errorf("%w: invalid time parameter", ErrMalformedHash)
			}
			fields.time = uint32(v)
			timeSet = true
		case "p":
			v, err := strconv.ParseUint(val, 10, 8)
			if err != nil || v == 0 {
				return fmt.Errorf("%w: invalid parallelism parameter", ErrMalformedHash)
			}
			fields.parallelism = uint8(v)
			parallelismSet = true
		default:
			return fmt.Errorf("%w: unsupported parameter %q", ErrMalformedHash, k)
		}
	}

	if !memorySet || !timeSet || !parallelismSet {
		return fmt.Errorf("%w: missing parameters", ErrMalformedHash)
	}
	return nil
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("password time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}
	return nil
}
