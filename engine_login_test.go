package gatekit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoginIssuesValidPair(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()

	pair, err := engine.Login(context.Background(), testEmail, testSecret)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}

	principal, err := engine.ValidateAccess(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("access validation failed: %v", err)
	}
	if principal.UserID != testUserID || principal.Email != testEmail || principal.Role != "admin" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}

func TestLoginWrongSecret(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()

	_, err := engine.Login(context.Background(), testEmail, "wrong-secret-value")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownIdentityIndistinguishable(t *testing.T) {
	engine, mr, done := newTestEngine(t)
	defer done()

	_, wrongIdentity := engine.Login(context.Background(), "nobody@example.com", testSecret)

	mr.FastForward(time.Minute) // clear the cooldown between attempts

	_, wrongSecret := engine.Login(context.Background(), testEmail, "wrong-secret-value")

	if !errors.Is(wrongIdentity, ErrInvalidCredentials) || !errors.Is(wrongSecret, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", wrongIdentity, wrongSecret)
	}
	if wrongIdentity.Error() != wrongSecret.Error() {
		t.Fatalf("identity and secret failures must be indistinguishable: %q vs %q",
			wrongIdentity.Error(), wrongSecret.Error())
	}
}

func TestLoginStructuralRejection(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()

	cases := []struct {
		name   string
		email  string
		secret string
	}{
		{"empty email", "", testSecret},
		{"no at sign", "adminexample.com", testSecret},
		{"leading at", "@example.com", testSecret},
		{"trailing at", "admin@", testSecret},
		{"double at", "admin@ex@ample.com", testSecret},
		{"whitespace", "admin @example.com", testSecret},
		{"oversized email", strings.Repeat("a", 250) + "@x.com", testSecret},
		{"empty secret", testEmail, ""},
		{"oversized secret", testEmail, strings.Repeat("x", 2048)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Login(context.Background(), tc.email, tc.secret)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLoginStructuralFailureDoesNotConsumeCooldown(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()

	// Structurally invalid input is rejected before the limiter, so a
	// legitimate attempt right after still goes through.
	if _, err := engine.Login(context.Background(), "not-an-email", testSecret); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := engine.Login(context.Background(), testEmail, testSecret); err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
}

func TestLoginRateLimitedAfterFailure(t *testing.T) {
	engine, mr, done := newTestEngine(t)
	defer done()

	ctx := context.Background()

	if _, err := engine.Login(ctx, testEmail, "wrong-secret-value"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// Second attempt lands inside the cooldown window even with the
	// correct secret: no credential work happens while limited.
	_, err := engine.Login(ctx, testEmail, testSecret)
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rl.RetryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", rl.RetryAfter)
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Fatal("RateLimitedError must unwrap to ErrRateLimited")
	}

	mr.FastForward(time.Minute)

	if _, err := engine.Login(ctx, testEmail, testSecret); err != nil {
		t.Fatalf("expected login after window expiry to succeed, got %v", err)
	}
}

func TestLoginSuccessResetsCooldown(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := engine.Login(ctx, testEmail, testSecret); err != nil {
			t.Fatalf("login %d failed: %v", i, err)
		}
	}
}

func TestLoginRateLimitIsPerIdentity(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()

	attacker := WithClientIP(context.Background(), "10.0.0.1")
	victim := WithClientIP(context.Background(), "10.0.0.2")

	if _, err := engine.Login(attacker, testEmail, "wrong-secret-value"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// The attacker's cooldown must not lock out a different source.
	if _, err := engine.Login(victim, testEmail, testSecret); err != nil {
		t.Fatalf("expected victim login to succeed, got %v", err)
	}
}

func TestLoginStartsFreshFamilyEachTime(t *testing.T) {
	engine, _, done := newTestEngine(t)
	defer done()

	ctx := context.Background()

	first, err := engine.Login(ctx, testEmail, testSecret)
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	second, err := engine.Login(ctx, testEmail, testSecret)
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}

	firstClaims, err := engine.codec.VerifyRefresh(first.RefreshToken)
	if err != nil {
		t.Fatalf("verify first refresh: %v", err)
	}
	secondClaims, err := engine.codec.VerifyRefresh(second.RefreshToken)
	if err != nil {
		t.Fatalf("verify second refresh: %v", err)
	}

	if firstClaims.FID == secondClaims.FID {
		t.Fatal("each login must start its own rotation family")
	}

	// Both sessions stay usable concurrently.
	if _, err := engine.Refresh(ctx, first.RefreshToken); err != nil {
		t.Fatalf("first session refresh failed: %v", err)
	}
	if _, err := engine.Refresh(ctx, second.RefreshToken); err != nil {
		t.Fatalf("second session refresh failed: %v", err)
	}
}

func TestLoginStoreDown(t *testing.T) {
	engine, mr, done := newTestEngine(t)
	defer done()

	mr.Close()

	// The limiter falls back to memory, credentials still verify, but
	// family creation needs the store.
	_, err := engine.Login(context.Background(), testEmail, testSecret)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
