package secureauth

import (
	"context"
	"fmt"

	"github.com/MrEthical07/secureauth/account"
	"github.com/MrEthical07/secureauth/events"
	"github.com/MrEthical07/secureauth/session"
)

// SignUp registers a new account with the identity backend, initializes its
// security state, and signs the caller in. The new account starts unverified;
// callers should prompt for email verification.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (*SignUpResult, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}
	key := account.Key(email)

	if lockErr := s.lockoutError(ctx, key); lockErr != nil {
		s.recordEvent(ctx, events.TypeSignupFailed, key, lockErr)
		s.metricInc(MetricSignUpFailure)
		return nil, lockErr
	}

	user, err := s.backend.SignUpWithEmail(ctx, key, password, name)
	if err != nil {
		s.recordEvent(ctx, events.TypeSignupFailed, key, err)
		s.metricInc(MetricSignUpFailure)
		return nil, fmt.Errorf("sign up: %w", err)
	}

	if _, err := s.accounts.Init(ctx, key); err != nil {
		// State initialization is recoverable: defaults are re-materialized
		// on first read, so the sign-up proceeds.
		s.emitAudit(ctx, "account_state_init", false, key, err, nil)
	}

	sess, err := s.createAndSaveSession(ctx, user)
	if err != nil {
		s.recordEvent(ctx, events.TypeSignupFailed, key, err)
		s.metricInc(MetricSignUpFailure)
		return nil, err
	}

	s.recordEvent(ctx, events.TypeSignupSuccess, key, nil)
	s.metricInc(MetricSignUpSuccess)

	return &SignUpResult{
		User:                      user,
		Session:                   sess,
		RequiresEmailVerification: true,
	}, nil
}

// SignIn authenticates email against the identity backend, guarded by
// anomaly detection (installation-wide) and the per-account lockout.
// Attempt, success, and failure events are recorded unconditionally around
// every branch so the detector sees failures even when the backend throws.
func (s *Service) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	if s == nil {
		return nil, ErrServiceNotReady
	}
	key := account.Key(email)

	verdict := s.recordEvent(ctx, events.TypeLoginAttempt, key, nil)
	if !verdict.Suspicious {
		// Enforced cooldowns outlive the detection window itself.
		if v, err := s.log.Check(ctx); err == nil && v.Suspicious {
			verdict = v
		}
	}
	if verdict.Suspicious {
		s.metricInc(MetricLoginSuspicious)
		return nil, &SuspiciousActivityError{Reason: verdict.Reason, Cooldown: verdict.Cooldown}
	}

	if lockErr := s.lockoutError(ctx, key); lockErr != nil {
		s.metricInc(MetricLoginLocked)
		return nil, lockErr
	}

	user, err := s.backend.SignInWithEmail(ctx, key, password)
	if err != nil {
		if _, recErr := s.accounts.RecordFailure(ctx, key); recErr != nil {
			s.emitAudit(ctx, "failure_recording", false, key, recErr, nil)
		}
		s.recordEvent(ctx, events.TypeLoginFailed, key, err)
		s.metricInc(MetricLoginFailure)
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if _, err := s.accounts.RecordSuccess(ctx, key); err != nil {
		s.emitAudit(ctx, "success_recording", false, key, err, nil)
	}

	sess, err := s.createAndSaveSession(ctx, user)
	if err != nil {
		s.recordEvent(ctx, events.TypeLoginFailed, key, err)
		s.metricInc(MetricLoginFailure)
		return nil, err
	}

	s.recordEvent(ctx, events.TypeLoginSuccess, key, nil)
	s.metricInc(MetricLoginSuccess)

	return &SignInResult{User: user, Session: sess}, nil
}

// SignOut records a logout if a session exists, then clears the slot.
// Idempotent: signing out with no session is a no-op.
func (s *Service) SignOut(ctx context.Context) error {
	if s == nil {
		return ErrServiceNotReady
	}

	sess, err := s.sessions.Get(ctx)
	if err == nil && sess != nil {
		s.recordEvent(ctx, events.TypeLogout, account.Key(sess.Email), nil)
	}

	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	s.metricInc(MetricSessionCleared)
	return nil
}

// lockoutError returns a LockedError when key is currently denied
// authentication, nil otherwise.
func (s *Service) lockoutError(ctx context.Context, key string) error {
	locked, err := s.accounts.IsLocked(ctx, key)
	if err != nil || !locked {
		return nil // lock reads degrade open; writes still enforce
	}

	st, err := s.accounts.Get(ctx, key)
	if err != nil {
		return &LockedError{Email: key, Reason: "too many failed attempts"}
	}
	if st.Suspended {
		return &LockedError{Email: key, Reason: "account suspended by an administrator"}
	}
	lockErr := &LockedError{Email: key, Reason: "too many failed attempts"}
	if st.LockedUntil != nil {
		if remaining := st.LockedUntil.Sub(s.now()); remaining > 0 {
			lockErr.RetryAfter = remaining
		}
	}
	return lockErr
}

func (s *Service) createAndSaveSession(ctx context.Context, user User) (*Session, error) {
	sess, err := s.sessions.Create(ctx, session.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Provider: user.Provider,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionSaveFailed, err)
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionSaveFailed, err)
	}
	s.metricInc(MetricSessionCreated)
	return sess, nil
}
