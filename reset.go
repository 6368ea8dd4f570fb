package secureauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MrEthical07/secureauth/account"
	"github.com/MrEthical07/secureauth/events"
	"github.com/MrEthical07/secureauth/internal"
	"github.com/MrEthical07/secureauth/securestore"
)

// ErrResetDisabled is returned when password reset is switched off in config.
var ErrResetDisabled = errors.New("password reset disabled")

const resetSigningKeySlot = "reset_signing_key"

// RequestPasswordReset issues a signed, short-lived reset token and hands it
// to the identity backend for delivery. The response is identical whether or
// not the account exists, so callers cannot probe for registered emails.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if s == nil {
		return ErrServiceNotReady
	}
	if !s.config.Reset.Enabled {
		return ErrResetDisabled
	}
	key := account.Key(email)

	token, err := s.signResetToken(ctx, key)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	if err := s.backend.SendPasswordReset(ctx, key, token); err != nil {
		// Unknown accounts look exactly like successful requests.
		if !errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("send reset: %w", err)
		}
	}

	s.recordEvent(ctx, events.TypePasswordReset, key, nil)
	s.metricInc(MetricResetRequested)
	return nil
}

// ConfirmPasswordReset verifies a reset token and applies the new password
// through the identity backend. A successful reset also lifts any timed lock
// so the owner regains access immediately.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if s == nil {
		return ErrServiceNotReady
	}
	if !s.config.Reset.Enabled {
		return ErrResetDisabled
	}

	email, err := s.verifyResetToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.backend.UpdatePassword(ctx, email, newPassword); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.accounts.Unlock(ctx, email); err != nil {
		s.emitAudit(ctx, "post_reset_unlock", false, email, err, nil)
	}

	s.recordEvent(ctx, events.TypePasswordReset, email, nil)
	return nil
}

func (s *Service) signResetToken(ctx context.Context, email string) (string, error) {
	secret, err := s.resetSigningKey(ctx)
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Reset.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *Service) verifyResetToken(ctx context.Context, token string) (string, error) {
	secret, err := s.resetSigningKey(ctx)
	if err != nil {
		return "", err
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return "", ErrResetTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrResetTokenInvalid
	}
	return claims.Subject, nil
}

// resetSigningKey lazily mints the per-installation HMAC secret for reset
// tokens and keeps it in the secure store.
func (s *Service) resetSigningKey(ctx context.Context) (string, error) {
	secret, err := s.secure.GetSecure(ctx, resetSigningKeySlot)
	if err == nil {
		return secret, nil
	}
	if !errors.Is(err, securestore.ErrSecretNotFound) {
		return "", err
	}

	secret, err = internal.Token()
	if err != nil {
		return "", err
	}
	if err := s.secure.SetSecure(ctx, resetSigningKeySlot, secret); err != nil {
		return "", err
	}
	return secret, nil
}
