package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/secureauth/internal"
	"github.com/MrEthical07/secureauth/securestore"
)

// ErrPersistFailed indicates the session could not be written to storage.
// The in-memory session remains unsaved.
var ErrPersistFailed = errors.New("session persistence failed")

// Manager owns the installation's session slot.
//
// Manager instances are intended to be configured during initialization and
// then treated as immutable; methods tolerate concurrent and redundant calls
// (heartbeat timers, validity polls, foreground sign-in/out).
type Manager struct {
	redis  redis.UniversalClient
	secure *securestore.Store
	device securestore.FingerprintFunc
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a session manager with the given session lifetime.
func NewManager(redisClient redis.UniversalClient, secure *securestore.Store, device securestore.FingerprintFunc, prefix string, ttl time.Duration, now func() time.Time) *Manager {
	if prefix == "" {
		prefix = "sa"
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{
		redis:  redisClient,
		secure: secure,
		device: device,
		prefix: prefix,
		ttl:    ttl,
		now:    now,
	}
}

func (m *Manager) sessionKey() string {
	return m.prefix + ":session:current"
}

func (m *Manager) activityKey() string {
	return m.prefix + ":session:last_activity"
}

// Create builds a new Session for id with a fresh secure token. The session
// is not persisted; callers follow up with Save.
func (m *Manager) Create(ctx context.Context, id Identity) (*Session, error) {
	token, err := internal.Token()
	if err != nil {
		return nil, err
	}

	deviceID := ""
	if m.device != nil {
		// Device binding is best-effort; an unidentifiable device still signs in.
		if fp, err := m.device(ctx); err == nil {
			deviceID = fp
		}
	}

	now := m.now()
	return &Session{
		UserID:    id.UserID,
		Email:     id.Email,
		Name:      id.Name,
		Provider:  id.Provider,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		Token:     token,
		DeviceID:  deviceID,
	}, nil
}

// Save seals and persists the session and stamps last-activity. Persistence
// failures propagate; the stored slot is then unchanged.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if s == nil {
		return errors.New("nil session")
	}

	blob, err := m.secure.Encrypt(ctx, s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	if err := m.redis.Set(ctx, m.sessionKey(), blob, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	if err := m.stampActivity(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	return nil
}

// Get loads the persisted session. It returns nil when the slot is empty,
// the blob fails to decrypt, or the session has expired — in the expired
// case the slot is also cleared (lazy expiry). A valid session missing its
// last-activity record gets one backfilled rather than being invalidated.
func (m *Manager) Get(ctx context.Context) (*Session, error) {
	blob, err := m.redis.Get(ctx, m.sessionKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, nil // storage unreachable degrades to "not authenticated"
	}

	var s Session
	if err := m.secure.Decrypt(ctx, blob, &s); err != nil {
		// Corrupt or foreign-key blob: treat as absent.
		return nil, nil
	}

	if !s.Valid(m.now()) {
		_ = m.Clear(ctx)
		return nil, nil
	}

	if _, err := m.redis.Get(ctx, m.activityKey()).Result(); errors.Is(err, redis.Nil) {
		if err := m.stampActivity(ctx); err != nil {
			log.Printf("secureauth: activity backfill failed: %v", err)
		}
	}

	return &s, nil
}

// UpdateActivity refreshes the last-activity timestamp. Best-effort: storage
// errors are swallowed, this is a non-fatal heartbeat.
func (m *Manager) UpdateActivity(ctx context.Context) {
	if err := m.stampActivity(ctx); err != nil {
		log.Printf("secureauth: activity update failed: %v", err)
	}
}

// LastActivity returns the recorded last-activity time, or the zero time
// when no record exists.
func (m *Manager) LastActivity(ctx context.Context) (time.Time, error) {
	v, err := m.redis.Get(ctx, m.activityKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

// Clear removes the session slot and its activity record. Idempotent.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.redis.Del(ctx, m.sessionKey(), m.activityKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	return nil
}

func (m *Manager) stampActivity(ctx context.Context) error {
	return m.redis.Set(ctx, m.activityKey(), strconv.FormatInt(m.now().UnixMilli(), 10), 0).Err()
}
