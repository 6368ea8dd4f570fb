package secureauth

import (
	"context"
	"time"

	"github.com/MrEthical07/secureauth/account"
	"github.com/MrEthical07/secureauth/device"
	"github.com/MrEthical07/secureauth/events"
	"github.com/MrEthical07/secureauth/securestore"
	"github.com/MrEthical07/secureauth/session"
)

// User is the account identity returned by the [IdentityBackend].
type User struct {
	ID       string
	Email    string
	Name     string
	Provider string
}

// IdentityBackend is the external credential authority. It owns the actual
// proof of identity; this core wraps it with lockout, anomaly detection,
// session persistence, and event logging. Implementations report failed
// proofs with [ErrInvalidCredentials] and duplicate registrations with
// [ErrEmailTaken] (directly or wrapped).
type IdentityBackend interface {
	SignUpWithEmail(ctx context.Context, email, password, name string) (User, error)
	SignInWithEmail(ctx context.Context, email, password string) (User, error)
	RemoveUser(ctx context.Context, email string) error
	SendPasswordReset(ctx context.Context, email, token string) error
	UpdatePassword(ctx context.Context, email, newPassword string) error
}

// SecretStore is the optional hardened secret slot (platform keychain or
// equivalent). See [securestore.SecretStore].
type SecretStore = securestore.SecretStore

// DeviceSource supplies static device attributes for fingerprinting.
// See [device.Source].
type DeviceSource = device.Source

// Session re-exports the session model owned by [session.Manager].
type Session = session.Session

// AccountState re-exports the per-account security state.
type AccountState = account.State

// SecurityEvent re-exports one security log entry.
type SecurityEvent = events.Event

// Clock is the injectable time source used throughout the Service.
type Clock func() time.Time

// SignUpResult is returned by [Service.SignUp].
type SignUpResult struct {
	User                      User
	Session                   *Session
	RequiresEmailVerification bool
}

// SignInResult is returned by [Service.SignIn].
type SignInResult struct {
	User    User
	Session *Session
}
