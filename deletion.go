package secureauth

import (
	"context"
	"log"

	"github.com/MrEthical07/secureauth/account"
	"github.com/MrEthical07/secureauth/events"
)

// DeleteAccount removes every trace of email from this installation: the
// session slot, the account state, the backend user record, secure-store key
// material, and the email field of historical security events (anonymized,
// not deleted). Sub-steps are best-effort: an individual failure is logged
// and the remaining cleanup still runs.
func (s *Service) DeleteAccount(ctx context.Context, email string) error {
	if s == nil {
		return ErrServiceNotReady
	}
	key := account.Key(email)

	steps := []struct {
		name string
		run  func() error
	}{
		{"clear session", func() error { return s.sessions.Clear(ctx) }},
		{"delete account state", func() error { return s.accounts.Delete(ctx, key) }},
		{"remove backend user", func() error { return s.backend.RemoveUser(ctx, key) }},
		{"anonymize events", func() error { return s.log.AnonymizeEmail(ctx, key) }},
		{"delete reset signing key", func() error { return s.secure.DeleteSecure(ctx, resetSigningKeySlot) }},
		{"delete key material", func() error { return s.secure.DeleteKeyMaterial(ctx) }},
	}

	failed := 0
	for _, step := range steps {
		if err := step.run(); err != nil {
			failed++
			log.Printf("secureauth: account deletion step %q failed: %v", step.name, err)
			s.emitAudit(ctx, "account_deletion_step", false, events.DeletedMarker, err,
				map[string]string{"step": step.name})
		}
	}

	if failed > 0 {
		s.recordEvent(ctx, events.TypeAccountDeleteErr, events.DeletedMarker, nil)
	} else {
		s.recordEvent(ctx, events.TypeAccountDeleted, events.DeletedMarker, nil)
	}
	s.metricInc(MetricAccountDeleted)
	return nil
}
