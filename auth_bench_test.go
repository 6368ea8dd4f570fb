package secureauth

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkSignInSuccess(b *testing.B) {
	svc, _, _ := newBenchService(b)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "bench@example.com", "bench-pw-123", "Bench"); err != nil {
		b.Fatalf("SignUp failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.SignIn(ctx, "bench@example.com", "bench-pw-123"); err != nil {
			b.Fatalf("SignIn failed: %v", err)
		}
	}
}

func BenchmarkCurrentSession(b *testing.B) {
	svc, _, _ := newBenchService(b)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "bench@example.com", "bench-pw-123", "Bench"); err != nil {
		b.Fatalf("SignUp failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sess, err := svc.CurrentSession(ctx)
		if err != nil || sess == nil {
			b.Fatalf("CurrentSession = %v, %v", sess, err)
		}
	}
}

func BenchmarkHashPassword(b *testing.B) {
	svc, _, _ := newBenchService(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.HashPassword(fmt.Sprintf("bench-password-%d", i)); err != nil {
			b.Fatalf("HashPassword failed: %v", err)
		}
	}
}

func newBenchService(b *testing.B) (*Service, *fakeBackend, *fakeClock) {
	b.Helper()

	// Volume detection would trip on b.N sign-ins; push it out of range.
	cfg := testServiceConfig()
	cfg.Anomaly.RapidThreshold = 1 << 30
	cfg.Anomaly.VolumeThreshold = 1 << 30

	return newTestServiceTB(b, cfg)
}
