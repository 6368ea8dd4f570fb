package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable indicates the account-state backend is unreachable.
var ErrStoreUnavailable = errors.New("account store unavailable")

const lockStripes = 32

// Config holds lockout tuning.
type Config struct {
	LockThreshold int           // consecutive failures before a timed lock
	LockDuration  time.Duration // length of a timed lock
}

// DefaultConfig returns the standard lockout policy: 5 failures, 1 hour.
func DefaultConfig() Config {
	return Config{LockThreshold: 5, LockDuration: time.Hour}
}

// State is the persisted security metadata for one account.
type State struct {
	Email               string     `json:"email"`
	EmailVerified       bool       `json:"email_verified"`
	Locked              bool       `json:"locked"`
	Suspended           bool       `json:"suspended"`
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	LastFailedLogin     *time.Time `json:"last_failed_login,omitempty"`
	LastSuccessfulLogin *time.Time `json:"last_successful_login,omitempty"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Store persists account states in one hash keyed by lower-cased email.
//
// Read-modify-write cycles for the same email are serialized through striped
// locks so concurrent failure and success recording cannot lose updates.
type Store struct {
	redis  redis.UniversalClient
	config Config
	prefix string
	now    func() time.Time

	stripes [lockStripes]sync.Mutex
}

// NewStore creates an account-state store.
func NewStore(redisClient redis.UniversalClient, cfg Config, prefix string, now func() time.Time) *Store {
	if cfg.LockThreshold <= 0 {
		cfg.LockThreshold = 5
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = time.Hour
	}
	if prefix == "" {
		prefix = "sa"
	}
	if now == nil {
		now = time.Now
	}
	return &Store{redis: redisClient, config: cfg, prefix: prefix, now: now}
}

func (s *Store) hashKey() string {
	return s.prefix + ":accounts"
}

// Key normalizes an email to its storage key form.
func Key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) lock(email string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(Key(email)))
	m := &s.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

// Get returns the state for email, or a zero-value default when absent or
// unreadable (read paths degrade rather than propagate).
func (s *Store) Get(ctx context.Context, email string) (State, error) {
	key := Key(email)
	raw, err := s.redis.HGet(ctx, s.hashKey(), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return s.defaultState(key), nil
		}
		return s.defaultState(key), fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return s.defaultState(key), nil
	}
	return st, nil
}

// RecordFailure increments the failure counter and applies a timed lock at
// the threshold. Returns the updated state.
func (s *Store) RecordFailure(ctx context.Context, email string) (State, error) {
	unlock := s.lock(email)
	defer unlock()

	st, err := s.Get(ctx, email)
	if err != nil {
		return st, err
	}

	now := s.now()
	st.FailedLoginAttempts++
	st.LastFailedLogin = &now

	if st.FailedLoginAttempts >= s.config.LockThreshold && !st.Locked {
		until := now.Add(s.config.LockDuration)
		st.Locked = true
		st.LockedUntil = &until
	}

	return st, s.put(ctx, st)
}

// RecordSuccess resets the failure counter and stamps the success time.
// An existing lock is left untouched: only expiry or an explicit unlock
// lifts it.
func (s *Store) RecordSuccess(ctx context.Context, email string) (State, error) {
	unlock := s.lock(email)
	defer unlock()

	st, err := s.Get(ctx, email)
	if err != nil {
		return st, err
	}

	now := s.now()
	st.FailedLoginAttempts = 0
	st.LastFailedLogin = nil
	st.LastSuccessfulLogin = &now

	return st, s.put(ctx, st)
}

// IsLocked reports whether email is currently denied authentication. A timed
// lock whose expiry has passed is cleared in place, counter included.
// Suspension never auto-clears.
func (s *Store) IsLocked(ctx context.Context, email string) (bool, error) {
	unlock := s.lock(email)
	defer unlock()

	st, err := s.Get(ctx, email)
	if err != nil {
		return false, err
	}

	if st.Suspended {
		return true, nil
	}
	if !st.Locked {
		return false, nil
	}
	if st.LockedUntil != nil && s.now().After(*st.LockedUntil) {
		st.Locked = false
		st.LockedUntil = nil
		st.FailedLoginAttempts = 0
		if err := s.put(ctx, st); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// VerifyEmail marks the account's email as verified. Idempotent.
func (s *Store) VerifyEmail(ctx context.Context, email string) error {
	unlock := s.lock(email)
	defer unlock()

	st, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	if st.EmailVerified {
		return nil
	}
	st.EmailVerified = true
	return s.put(ctx, st)
}

// Unlock lifts a timed lock and resets the failure counter. Idempotent.
// Suspended accounts stay suspended.
func (s *Store) Unlock(ctx context.Context, email string) error {
	unlock := s.lock(email)
	defer unlock()

	st, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	if !st.Locked && st.FailedLoginAttempts == 0 {
		return nil
	}
	st.Locked = false
	st.LockedUntil = nil
	st.FailedLoginAttempts = 0
	return s.put(ctx, st)
}

// Suspend places the account under an administrative, non-expiring lock.
func (s *Store) Suspend(ctx context.Context, email string) error {
	unlock := s.lock(email)
	defer unlock()

	st, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	if st.Suspended {
		return nil
	}
	st.Suspended = true
	st.Locked = true
	st.LockedUntil = nil
	return s.put(ctx, st)
}

// Init ensures a state record exists for a newly created account.
func (s *Store) Init(ctx context.Context, email string) (State, error) {
	unlock := s.lock(email)
	defer unlock()

	st, err := s.Get(ctx, email)
	if err != nil {
		return st, err
	}
	return st, s.put(ctx, st)
}

// Delete removes the account's state entirely. Idempotent.
func (s *Store) Delete(ctx context.Context, email string) error {
	unlock := s.lock(email)
	defer unlock()

	if err := s.redis.HDel(ctx, s.hashKey(), Key(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) defaultState(key string) State {
	now := s.now()
	return State{Email: key, CreatedAt: now, UpdatedAt: now}
}

func (s *Store) put(ctx context.Context, st State) error {
	st.UpdatedAt = s.now()
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.redis.HSet(ctx, s.hashKey(), st.Email, raw).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
