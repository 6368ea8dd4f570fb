package secureauth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPasswordResetRoundTrip(t *testing.T) {
	svc, backend, _ := newTestService(t, testServiceConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "mia@example.com", "old-pw-123", "Mia"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := svc.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, "Mia@Example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	token := backend.lastReset()
	if token == "" {
		t.Fatal("backend received no reset token")
	}

	if err := svc.ConfirmPasswordReset(ctx, token, "new-pw-456"); err != nil {
		t.Fatalf("ConfirmPasswordReset failed: %v", err)
	}

	if _, err := svc.SignIn(ctx, "mia@example.com", "old-pw-123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must be rejected, got %v", err)
	}
	if _, err := svc.SignIn(ctx, "mia@example.com", "new-pw-456"); err != nil {
		t.Fatalf("SignIn with new password failed: %v", err)
	}
}

func TestPasswordResetUnknownEmailLooksSuccessful(t *testing.T) {
	svc, backend, _ := newTestService(t, testServiceConfig())
	ctx := context.Background()

	if err := svc.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("request for unknown email must not error, got %v", err)
	}
	if got := backend.lastReset(); got != "" {
		t.Fatalf("no token should reach a delivery channel, got %q", got)
	}
}

func TestPasswordResetTokenExpires(t *testing.T) {
	svc, backend, clock := newTestService(t, testServiceConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "nina@example.com", "old-pw-123", "Nina"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "nina@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	token := backend.lastReset()

	clock.Advance(16 * time.Minute)
	if err := svc.ConfirmPasswordReset(ctx, token, "new-pw"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid for expired token, got %v", err)
	}
}

func TestPasswordResetTokenTamperRejected(t *testing.T) {
	svc, backend, _ := newTestService(t, testServiceConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "olga@example.com", "old-pw-123", "Olga"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "olga@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	token := backend.lastReset()

	// Flip a character in the signature segment.
	i := strings.LastIndex(token, ".") + 1
	flipped := byte('A')
	if token[i] == 'A' {
		flipped = 'B'
	}
	tampered := token[:i] + string(flipped) + token[i+1:]

	if err := svc.ConfirmPasswordReset(ctx, tampered, "new-pw"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid for tampered token, got %v", err)
	}
	if err := svc.ConfirmPasswordReset(ctx, "not-a-token", "new-pw"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid for garbage token, got %v", err)
	}
}

func TestPasswordResetLiftsTimedLock(t *testing.T) {
	svc, backend, clock := newTestService(t, lockoutOnlyConfig())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "pia@example.com", "old-pw-123", "Pia"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		_, _ = svc.SignIn(ctx, "pia@example.com", "wrong-pw")
		clock.Advance(90 * time.Second)
	}
	if locked, _ := svc.IsAccountLocked(ctx, "pia@example.com"); !locked {
		t.Fatal("expected locked account")
	}

	if err := svc.RequestPasswordReset(ctx, "pia@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if err := svc.ConfirmPasswordReset(ctx, backend.lastReset(), "new-pw-789"); err != nil {
		t.Fatalf("ConfirmPasswordReset failed: %v", err)
	}

	if _, err := svc.SignIn(ctx, "pia@example.com", "new-pw-789"); err != nil {
		t.Fatalf("SignIn after reset failed: %v", err)
	}
}

func TestPasswordResetDisabled(t *testing.T) {
	cfg := testServiceConfig()
	cfg.Reset.Enabled = false
	svc, _, _ := newTestService(t, cfg)
	ctx := context.Background()

	if err := svc.RequestPasswordReset(ctx, "a@b.com"); !errors.Is(err, ErrResetDisabled) {
		t.Fatalf("expected ErrResetDisabled, got %v", err)
	}
	if err := svc.ConfirmPasswordReset(ctx, "token", "pw"); !errors.Is(err, ErrResetDisabled) {
		t.Fatalf("expected ErrResetDisabled, got %v", err)
	}
}
