package secureauth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrServiceNotReady is returned when a Service method is called before Build.
	ErrServiceNotReady = errors.New("service not initialized")
	// ErrInvalidCredentials is returned by the identity backend on a failed proof.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned by the identity backend when the email is registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUserNotFound is returned by the identity backend for unknown accounts.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountLocked is returned when the account is under a timed lock or suspension.
	ErrAccountLocked = errors.New("account locked")
	// ErrTooManyAttempts is returned when anomaly detection flags the installation.
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrSessionSaveFailed is returned when a freshly created session cannot be persisted.
	ErrSessionSaveFailed = errors.New("session save failed")
	// ErrResetTokenInvalid is returned for expired, malformed, or foreign reset tokens.
	ErrResetTokenInvalid = errors.New("invalid password reset token")
	// ErrStorageUnavailable is returned when a security-critical write cannot reach storage.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// LockedError carries the user-facing metadata of an account lockout: a
// presentable reason and how long the caller should wait. It unwraps to
// [ErrAccountLocked].
type LockedError struct {
	Email      string
	Reason     string
	RetryAfter time.Duration // 0 for suspensions (no automatic recovery)
}

func (e *LockedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("account locked: %s (retry in %s)", e.Reason, e.RetryAfter)
	}
	return "account locked: " + e.Reason
}

func (e *LockedError) Unwrap() error { return ErrAccountLocked }

// SuspiciousActivityError carries the anomaly-detection verdict behind a
// rejected attempt. It unwraps to [ErrTooManyAttempts].
type SuspiciousActivityError struct {
	Reason   string
	Cooldown time.Duration
}

func (e *SuspiciousActivityError) Error() string {
	return fmt.Sprintf("too many attempts: %s (cooldown %s)", e.Reason, e.Cooldown)
}

func (e *SuspiciousActivityError) Unwrap() error { return ErrTooManyAttempts }
