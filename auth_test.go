package secureauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/secureauth/events"
)

// lockoutOnlyConfig pushes the anomaly thresholds out of the way so a test
// exercises the per-account lockout without tripping the rapid or volume
// detectors first.
func lockoutOnlyConfig() Config {
	cfg := testServiceConfig()
	cfg.Anomaly.RapidThreshold = 100
	cfg.Anomaly.VolumeThreshold = 100
	return cfg
}

func TestSignUpSignOutSignInRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t, testServiceConfig())
	ctx := context.Background()

	res, err := svc.SignUp(ctx, "Alice@Example.com", "Secret123!", "Alice")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if res.Session == nil {
		t.Fatal("SignUp must establish a session")
	}
	if !res.RequiresEmailVerification {
		t.Fatal("fresh sign-ups must require email verification")
	}
	if res.User.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", res.User.Email)
	}
	if !svc.IsAuthenticated(ctx) {
		t.Fatal("expected authenticated after sign-up")
	}

	if err := svc.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if svc.IsAuthenticated(ctx) {
		t.Fatal("expected unauthenticated after sign-out")
	}
	// Signing out again is a no-op.
	if err := svc.SignOut(ctx); err != nil {
		t.Fatalf("repeat SignOut failed: %v", err)
	}

	in, err := svc.SignIn(ctx, "alice@example.com", "Secret123!")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if in.Session == nil || in.User.ID != res.User.ID {
		t.Fatalf("SignIn returned wrong identity: %+v", in)
	}
	if !svc.IsAuthenticated(ctx) {
		t.Fatal("expected authenticated after sign-in")
	}

	sess, err := svc.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession failed: %v", err)
	}
	if sess == nil || sess.Email != "alice@example.com" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t, testServiceConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "bob@example.com", "pw123456", "Bob"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	_, err := svc.SignUp(ctx, "bob@example.com", "other-pw", "Bob Again")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t, testServiceConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "carol@example.com", "right-pw", "Carol"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := svc.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	_, err := svc.SignIn(ctx, "carol@example.com", "wrong-pw")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if svc.IsAuthenticated(ctx) {
		t.Fatal("failed sign-in must not authenticate")
	}

	st, err := svc.AccountState(ctx, "carol@example.com")
	if err != nil {
		t.Fatalf("AccountState failed: %v", err)
	}
	if st.FailedLoginAttempts != 1 {
		t.Fatalf("FailedLoginAttempts = %d, want 1", st.FailedLoginAttempts)
	}
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	svc, _, clock := newTestService(t, lockoutOnlyConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "dave@example.com", "right-pw", "Dave"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.SignIn(ctx, "dave@example.com", "wrong-pw"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
		clock.Advance(90 * time.Second)
	}

	locked, err := svc.IsAccountLocked(ctx, "dave@example.com")
	if err != nil || !locked {
		t.Fatalf("IsAccountLocked = %v, %v; want locked", locked, err)
	}

	// Even the correct password is rejected while the lock holds.
	_, err = svc.SignIn(ctx, "dave@example.com", "right-pw")
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
	var lockErr *LockedError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected *LockedError, got %T", err)
	}
	if lockErr.RetryAfter <= 0 {
		t.Fatalf("RetryAfter = %v, want positive", lockErr.RetryAfter)
	}

	// The timed lock expires on its own and resets the counter.
	clock.Advance(2 * time.Hour)
	if _, err := svc.SignIn(ctx, "dave@example.com", "right-pw"); err != nil {
		t.Fatalf("SignIn after lock expiry failed: %v", err)
	}
	st, err := svc.AccountState(ctx, "dave@example.com")
	if err != nil {
		t.Fatalf("AccountState failed: %v", err)
	}
	if st.FailedLoginAttempts != 0 || st.Locked {
		t.Fatalf("state not reset after expiry: %+v", st)
	}
}

func TestUnlockAccountLiftsTimedLock(t *testing.T) {
	svc, _, clock := newTestService(t, lockoutOnlyConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "erin@example.com", "right-pw", "Erin"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		_, _ = svc.SignIn(ctx, "erin@example.com", "wrong-pw")
		clock.Advance(90 * time.Second)
	}
	if locked, _ := svc.IsAccountLocked(ctx, "erin@example.com"); !locked {
		t.Fatal("expected locked account")
	}

	if err := svc.UnlockAccount(ctx, "erin@example.com"); err != nil {
		t.Fatalf("UnlockAccount failed: %v", err)
	}
	if _, err := svc.SignIn(ctx, "erin@example.com", "right-pw"); err != nil {
		t.Fatalf("SignIn after unlock failed: %v", err)
	}
}

func TestSuspendedAccountNeverAutoUnlocks(t *testing.T) {
	svc, _, clock := newTestService(t, lockoutOnlyConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "frank@example.com", "pw123456", "Frank"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := svc.SuspendAccount(ctx, "frank@example.com"); err != nil {
		t.Fatalf("SuspendAccount failed: %v", err)
	}

	clock.Advance(30 * 24 * time.Hour)
	_, err := svc.SignIn(ctx, "frank@example.com", "pw123456")
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked for suspended account, got %v", err)
	}
	var lockErr *LockedError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected *LockedError, got %T", err)
	}
	if lockErr.RetryAfter != 0 {
		t.Fatalf("suspension must not promise recovery: RetryAfter = %v", lockErr.RetryAfter)
	}
}

func TestRapidFailureAnomalyBlocksSignIn(t *testing.T) {
	svc, _, _ := newTestService(t, testServiceConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "grace@example.com", "right-pw", "Grace"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	// Three rapid failures inside the one-minute window arm the detector.
	for i := 0; i < 3; i++ {
		if _, err := svc.SignIn(ctx, "grace@example.com", "wrong-pw"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	_, err := svc.SignIn(ctx, "grace@example.com", "right-pw")
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	var suspErr *SuspiciousActivityError
	if !errors.As(err, &suspErr) {
		t.Fatalf("expected *SuspiciousActivityError, got %T", err)
	}
	if suspErr.Cooldown <= 0 {
		t.Fatalf("Cooldown = %v, want positive", suspErr.Cooldown)
	}

	// The detector leaves a marker event in the log.
	evs, err := svc.SecurityEvents(ctx, 0)
	if err != nil {
		t.Fatalf("SecurityEvents failed: %v", err)
	}
	found := false
	for _, e := range evs {
		if e.Type == events.TypeSuspicious {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a suspicious_activity_detected marker event")
	}
}

func TestAnomalyWindowSlidesClosed(t *testing.T) {
	svc, _, clock := newTestService(t, testServiceConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "heidi@example.com", "right-pw", "Heidi"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		_, _ = svc.SignIn(ctx, "heidi@example.com", "wrong-pw")
	}

	// Once the failures age out of the rapid window, sign-in works again.
	clock.Advance(2 * time.Minute)
	if _, err := svc.SignIn(ctx, "heidi@example.com", "right-pw"); err != nil {
		t.Fatalf("SignIn after window slide failed: %v", err)
	}
}

func TestEnforcedCooldownOutlivesWindow(t *testing.T) {
	cfg := testServiceConfig()
	cfg.Anomaly.EnforceCooldown = true
	svc, _, clock := newTestService(t, cfg)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "ivan@example.com", "right-pw", "Ivan"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		_, _ = svc.SignIn(ctx, "ivan@example.com", "wrong-pw")
	}
	if _, err := svc.SignIn(ctx, "ivan@example.com", "right-pw"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}

	// Past the rapid window but inside the persisted cooldown: still blocked.
	clock.Advance(2 * time.Minute)
	if _, err := svc.SignIn(ctx, "ivan@example.com", "right-pw"); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts inside cooldown, got %v", err)
	}

	clock.Advance(10 * time.Minute)
	if _, err := svc.SignIn(ctx, "ivan@example.com", "right-pw"); err != nil {
		t.Fatalf("SignIn after cooldown failed: %v", err)
	}
}

func TestSessionExpiresLazily(t *testing.T) {
	svc, _, clock := newTestService(t, testServiceConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "judy@example.com", "pw123456", "Judy"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if !svc.IsAuthenticated(ctx) {
		t.Fatal("expected authenticated")
	}

	clock.Advance(8 * 24 * time.Hour)
	if svc.IsAuthenticated(ctx) {
		t.Fatal("session must expire after its duration")
	}
	sess, err := svc.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession failed: %v", err)
	}
	if sess != nil {
		t.Fatalf("expected nil session after expiry, got %+v", sess)
	}
}

func TestVerifyEmailFlag(t *testing.T) {
	svc, _, _ := newTestService(t, testServiceConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "kate@example.com", "pw123456", "Kate"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	verified, err := svc.IsEmailVerified(ctx, "kate@example.com")
	if err != nil || verified {
		t.Fatalf("IsEmailVerified = %v, %v; want false", verified, err)
	}

	if err := svc.VerifyEmail(ctx, "kate@example.com"); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}
	verified, err = svc.IsEmailVerified(ctx, "KATE@example.com")
	if err != nil || !verified {
		t.Fatalf("IsEmailVerified = %v, %v; want true", verified, err)
	}
}

func TestMetricsCountAuthOutcomes(t *testing.T) {
	svc, _, _ := newTestService(t, lockoutOnlyConfig())
	ctx := context.Background()

	_, _ = svc.SignUp(ctx, "leo@example.com", "right-pw", "Leo")
	_, _ = svc.SignIn(ctx, "leo@example.com", "wrong-pw")
	_, _ = svc.SignIn(ctx, "leo@example.com", "right-pw")

	snap := svc.MetricsSnapshot()
	if got := snap.Counters[MetricSignUpSuccess]; got != 1 {
		t.Fatalf("sign-up successes = %d, want 1", got)
	}
	if got := snap.Counters[MetricLoginFailure]; got != 1 {
		t.Fatalf("login failures = %d, want 1", got)
	}
	if got := snap.Counters[MetricLoginSuccess]; got != 1 {
		t.Fatalf("login successes = %d, want 1", got)
	}
}
