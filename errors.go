package gatekit

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is returned for any identity or secret
	// failure during login. The two causes are deliberately merged so
	// callers cannot tell which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRateLimited is returned when an attempt lands inside an
	// unexpired cooldown window.
	ErrRateLimited = errors.New("rate limited")
	// ErrTokenInvalid is returned for signature, expiry, or structure
	// failures on a presented token.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrReuseDetected is returned when a superseded refresh token is
	// presented again. Internal only: PublicMessage collapses it into
	// the same outward message as ErrTokenInvalid so callers cannot
	// distinguish forged tokens from stolen-and-replayed ones.
	ErrReuseDetected = errors.New("refresh token reuse detected")
	// ErrStoreUnavailable is returned when the shared store cannot be
	// reached within the configured timeout.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEngineNotReady is returned when the Engine was not fully
	// constructed through the builder.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RateLimitedError carries the remaining cooldown alongside
// ErrRateLimited so the boundary can surface a retry-after hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

// PublicMessage maps an Engine error to the uniform outward message
// for the {success:false, error} response shape. Reuse detection and
// store faults are indistinguishable from a plain invalid token; only
// rate limiting gets its own message because it carries a retry hint.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "too many attempts, try again later"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid credentials"
	default:
		return "invalid token"
	}
}
