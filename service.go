package secureauth

import (
	"context"

	"github.com/MrEthical07/secureauth/account"
	"github.com/MrEthical07/secureauth/device"
	"github.com/MrEthical07/secureauth/events"
	internalaudit "github.com/MrEthical07/secureauth/internal/audit"
	"github.com/MrEthical07/secureauth/password"
	"github.com/MrEthical07/secureauth/securestore"
	"github.com/MrEthical07/secureauth/session"
)

// Service is the sole entry point this core exposes to its callers (UI layer,
// background schedulers). Construct it with [Builder.Build]; methods are safe
// to call from overlapping timers and foreground flows.
type Service struct {
	config   Config
	backend  IdentityBackend
	device   *device.Provider
	secure   *securestore.Store
	sessions *session.Manager
	accounts *account.Store
	log      *events.Log
	hasher   *password.Hasher
	audit    *internalaudit.Dispatcher
	metrics  *Metrics
	now      Clock
}

// Close drains the audit dispatcher. Call once at shutdown.
func (s *Service) Close() {
	if s == nil {
		return
	}
	if s.audit != nil {
		s.audit.Close()
	}
}

// AuditDropped reports audit events discarded under buffer pressure.
func (s *Service) AuditDropped() uint64 {
	if s == nil || s.audit == nil {
		return 0
	}
	return s.audit.Dropped()
}

// MetricsSnapshot copies the current counter values.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return s.metrics.Snapshot()
}

func (s *Service) metricInc(id MetricID) {
	if s == nil {
		return
	}
	s.metrics.Inc(id)
}

// CurrentSession returns the active session, or nil when none exists, the
// stored blob is unreadable, or it has expired (lazy expiry clears the slot).
func (s *Service) CurrentSession(ctx context.Context) (*Session, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}
	return s.sessions.Get(ctx)
}

// IsAuthenticated reports whether a valid session exists. Safe at arbitrary,
// possibly overlapping, polling cadence.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	if s == nil {
		return false
	}
	sess, err := s.sessions.Get(ctx)
	return err == nil && sess != nil
}

// UpdateActivity refreshes the last-activity heartbeat. Best-effort.
func (s *Service) UpdateActivity(ctx context.Context) {
	if s == nil {
		return
	}
	s.sessions.UpdateActivity(ctx)
}

// IsEmailVerified reports the verification flag for email.
func (s *Service) IsEmailVerified(ctx context.Context, email string) (bool, error) {
	if s == nil {
		return false, ErrServiceNotReady
	}
	st, err := s.accounts.Get(ctx, email)
	if err != nil {
		return false, nil // read path degrades
	}
	return st.EmailVerified, nil
}

// IsAccountLocked reports whether email is currently denied authentication.
// An expired timed lock auto-clears here.
func (s *Service) IsAccountLocked(ctx context.Context, email string) (bool, error) {
	if s == nil {
		return false, ErrServiceNotReady
	}
	return s.accounts.IsLocked(ctx, email)
}

// UnlockAccount lifts a timed lock and resets the failure counter.
func (s *Service) UnlockAccount(ctx context.Context, email string) error {
	if s == nil {
		return ErrServiceNotReady
	}
	err := s.accounts.Unlock(ctx, email)
	s.emitAudit(ctx, "account_unlocked", err == nil, account.Key(email), err, nil)
	return err
}

// SuspendAccount places email under an administrative, non-expiring lock.
func (s *Service) SuspendAccount(ctx context.Context, email string) error {
	if s == nil {
		return ErrServiceNotReady
	}
	err := s.accounts.Suspend(ctx, email)
	s.emitAudit(ctx, "account_suspended", err == nil, account.Key(email), err, nil)
	return err
}

// VerifyEmail marks the account's email as verified. Idempotent.
func (s *Service) VerifyEmail(ctx context.Context, email string) error {
	if s == nil {
		return ErrServiceNotReady
	}
	err := s.accounts.VerifyEmail(ctx, email)
	s.recordEvent(ctx, "email_verified", account.Key(email), err)
	return err
}

// AccountState returns the persisted security state for email; defaults when
// absent or unreadable.
func (s *Service) AccountState(ctx context.Context, email string) (AccountState, error) {
	if s == nil {
		return AccountState{}, ErrServiceNotReady
	}
	return s.accounts.Get(ctx, email)
}

// SecurityEvents returns up to limit recent events in chronological order.
func (s *Service) SecurityEvents(ctx context.Context, limit int) ([]SecurityEvent, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}
	return s.log.Recent(ctx, limit)
}

// DeviceInfo returns best-effort device metadata; it never fails.
func (s *Service) DeviceInfo(ctx context.Context) device.Info {
	if s == nil {
		return device.Info{Fingerprint: "unknown", Degraded: true}
	}
	return s.device.Info(ctx)
}

// HashPassword derives an Argon2id hash of password in PHC format.
func (s *Service) HashPassword(p string) (string, error) {
	if s == nil {
		return "", ErrServiceNotReady
	}
	return s.hasher.Hash(p)
}

// VerifyPassword checks p against an encoded hash in constant time.
func (s *Service) VerifyPassword(p, encodedHash string) (bool, error) {
	if s == nil {
		return false, ErrServiceNotReady
	}
	return s.hasher.Verify(p, encodedHash)
}

// recordEvent appends to the durable security log and mirrors to the audit
// sink. The returned verdict is the synchronous anomaly evaluation.
func (s *Service) recordEvent(ctx context.Context, eventType, email string, opErr error) events.Detection {
	details := map[string]string{}
	if email != "" {
		details["email"] = email
	}
	if opErr != nil {
		details["error"] = opErr.Error()
	}

	verdict, err := s.log.Record(ctx, eventType, details)
	if err != nil {
		// The log is advisory for callers; a full store must not fail the flow.
		verdict = events.Detection{}
	}

	s.emitAudit(ctx, eventType, opErr == nil, email, opErr, nil)
	return verdict
}
