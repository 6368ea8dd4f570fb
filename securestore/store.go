package securestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/hkdf"

	"github.com/MrEthical07/secureauth/internal"
)

var (
	// ErrStoreUnavailable indicates the persistence backend is unreachable.
	ErrStoreUnavailable = errors.New("secure store backend unavailable")
	// ErrSecretNotFound is returned when a secure value does not exist in
	// either the hardened slot or the fallback store.
	ErrSecretNotFound = errors.New("secret not found")
)

const masterKeySlot = "master_key"

// SecretStore is the optional hardened secret facility (platform keychain or
// equivalent). A nil or failing SecretStore transparently degrades to sealed
// values in the general store.
type SecretStore interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error) // ErrSecretNotFound when absent
	Delete(ctx context.Context, key string) error
}

// FingerprintFunc supplies the device fingerprint used for key derivation.
type FingerprintFunc func(ctx context.Context) (string, error)

// Store is the encryption-at-rest layer over the key-value store.
//
// Store instances are intended to be configured during initialization and then
// treated as immutable; all methods are safe for concurrent use.
type Store struct {
	redis       redis.UniversalClient
	secrets     SecretStore
	fingerprint FingerprintFunc
	prefix      string
	now         func() time.Time

	mu     sync.Mutex
	sealer *Sealer
}

// NewStore creates a secure store persisting under prefix. secrets may be nil.
func NewStore(redisClient redis.UniversalClient, secrets SecretStore, fingerprint FingerprintFunc, prefix string, now func() time.Time) *Store {
	if prefix == "" {
		prefix = "sa"
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		redis:       redisClient,
		secrets:     secrets,
		fingerprint: fingerprint,
		prefix:      prefix,
		now:         now,
	}
}

func (s *Store) keySlot() string {
	return s.prefix + ":secure:" + masterKeySlot
}

func (s *Store) valueSlot(key string) string {
	return s.prefix + ":secure:value:" + key
}

// Encrypt JSON-encodes v and seals it under the installation key.
func (s *Store) Encrypt(ctx context.Context, v any) (string, error) {
	sealer, err := s.getSealer(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return sealer.Seal(data)
}

// Decrypt opens blob and decodes the plaintext into out. Tampered input fails
// with ErrIntegrity; no partial data is written to out in that case.
func (s *Store) Decrypt(ctx context.Context, blob string, out any) error {
	sealer, err := s.getSealer(ctx)
	if err != nil {
		return err
	}
	data, err := sealer.Open(blob)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: undecodable plaintext", ErrIntegrity)
	}
	return nil
}

// SetSecure writes value through the hardened slot when available, falling
// back to a sealed entry in the general store.
func (s *Store) SetSecure(ctx context.Context, key, value string) error {
	if s.secrets != nil {
		if err := s.secrets.Set(ctx, key, value); err == nil {
			return nil
		}
	}

	sealed, err := s.Encrypt(ctx, value)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.valueSlot(key), sealed, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// GetSecure reads a value written by SetSecure, checking the hardened slot
// first. The fallback path is transparent to callers.
func (s *Store) GetSecure(ctx context.Context, key string) (string, error) {
	if s.secrets != nil {
		v, err := s.secrets.Get(ctx, key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			// Hardened slot unreachable: the fallback entry may still exist.
			return s.getFallback(ctx, key)
		}
	}
	return s.getFallback(ctx, key)
}

func (s *Store) getFallback(ctx context.Context, key string) (string, error) {
	sealed, err := s.redis.Get(ctx, s.valueSlot(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	var value string
	if err := s.Decrypt(ctx, sealed, &value); err != nil {
		return "", err
	}
	return value, nil
}

// DeleteSecure removes a secure value from both slots. Idempotent. A failing
// hardened slot degrades the same way Set and Get do: the fallback entry is
// removed regardless, so a value written through the fallback can always be
// deleted through it.
func (s *Store) DeleteSecure(ctx context.Context, key string) error {
	if s.secrets != nil {
		_ = s.secrets.Delete(ctx, key)
	}
	if err := s.redis.Del(ctx, s.valueSlot(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteKeyMaterial removes the installation key from both slots and drops
// the cached sealer. The next Encrypt call mints a fresh key; previously
// sealed blobs become unreadable.
func (s *Store) DeleteKeyMaterial(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sealer = nil
	if s.secrets != nil {
		// Degrades like DeleteSecure: the wrapped fallback key is removed
		// even when the hardened slot is unreachable.
		_ = s.secrets.Delete(ctx, masterKeySlot)
	}
	if err := s.redis.Del(ctx, s.keySlot()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// getSealer lazily loads or creates the installation key. Idempotent across
// calls and process restarts.
func (s *Store) getSealer(ctx context.Context) (*Sealer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sealer != nil {
		return s.sealer, nil
	}

	key, err := s.loadOrCreateKey(ctx)
	if err != nil {
		return nil, err
	}
	sealer, err := NewSealer(key)
	if err != nil {
		return nil, err
	}
	s.sealer = sealer
	return sealer, nil
}

func (s *Store) loadOrCreateKey(ctx context.Context) ([]byte, error) {
	// Hardened slot first.
	if s.secrets != nil {
		if encoded, err := s.secrets.Get(ctx, masterKeySlot); err == nil {
			return decodeKey(encoded)
		}
	}

	fp, err := s.fingerprint(ctx)
	if err != nil {
		return nil, err
	}
	wrapper, err := wrappingSealer(fp)
	if err != nil {
		return nil, err
	}

	// Fallback slot: the key sealed under the fingerprint-derived wrapping key.
	wrapped, err := s.redis.Get(ctx, s.keySlot()).Result()
	if err == nil {
		raw, err := wrapper.Open(wrapped)
		if err != nil {
			return nil, err
		}
		return raw, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	key, err := s.mintKey(ctx, fp)
	if err != nil {
		return nil, err
	}

	if s.secrets != nil {
		if err := s.secrets.Set(ctx, masterKeySlot, hex.EncodeToString(key)); err == nil {
			return key, nil
		}
	}
	sealed, err := wrapper.Seal(key)
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, s.keySlot(), sealed, 0).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return key, nil
}

// mintKey derives the installation key from the device fingerprint, the
// current time, and a random token.
func (s *Store) mintKey(_ context.Context, fingerprint string) ([]byte, error) {
	token, err := internal.Token()
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(fingerprint + strconv.FormatInt(s.now().UnixNano(), 10) + token))
	return sum[:], nil
}

func decodeKey(encoded string) ([]byte, error) {
	key, err := hex.DecodeString(encoded)
	if err != nil || len(key) != 32 {
		return nil, errors.New("stored key material is malformed")
	}
	return key, nil
}

// wrappingSealer derives the key-wrapping sealer from the device fingerprint.
func wrappingSealer(fingerprint string) (*Sealer, error) {
	h := hkdf.New(sha256.New, []byte(fingerprint), nil, []byte("secureauth-key-wrap"))
	wrap := make([]byte, 32)
	if _, err := io.ReadFull(h, wrap); err != nil {
		return nil, err
	}
	return NewSealer(wrap)
}
