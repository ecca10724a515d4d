package gatekit

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/avelldro/gatekit/internal/stores"
	"github.com/avelldro/gatekit/token"
)

// Refresh rotates a refresh token: the presented token is exchanged
// for a new access/refresh pair in the same family, the family record
// is advanced to the new token's ID, and the presented token is
// blacklisted for isRevoked consumers.
//
// The family record's current token ID is the sole arbiter of reuse:
// presenting any valid-looking token of the family other than the
// current one is treated as theft and poisons the entire family — the
// record is deleted so no descendant token ever rotates again.
//
// There is deliberately no lock around the read-check-write sequence.
// Two concurrent rotations of the same token race; whichever write
// lands second is caught as a mismatch on the next read. That
// race-then-detect model is part of the design and must not be
// replaced with an unguaranteed lock.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.codec == nil || e.families == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.VerifyRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", "", ErrTokenInvalid, func() map[string]string {
			return map[string]string{"reason": "verify_failed"}
		})
		return nil, ErrTokenInvalid
	}

	if e.limiter != nil && e.config.RateLimit.RefreshWindow > 0 {
		allowed, retryAfter := e.limiter.Allow(ctx, actionRefresh, claims.FID, e.config.RateLimit.RefreshWindow)
		if !allowed {
			e.metricInc(MetricRefreshRateLimited)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.UID, claims.FID, claims.ID, ErrRateLimited, nil)
			return nil, &RateLimitedError{RetryAfter: retryAfter}
		}
	}

	rec, err := e.families.Get(ctx, claims.FID)
	if err != nil {
		if errors.Is(err, stores.ErrFamilyNotFound) {
			// Family deleted by a prior logout or reuse event, or it
			// never existed. Conservatively invalid either way.
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.UID, claims.FID, claims.ID, ErrTokenInvalid, func() map[string]string {
				return map[string]string{"reason": "family_not_found"}
			})
			return nil, ErrTokenInvalid
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.UID, claims.FID, claims.ID, err, func() map[string]string {
			return map[string]string{"reason": "family_read_failed"}
		})
		return nil, ErrStoreUnavailable
	}

	if rec.CurrentTokenID != claims.ID {
		return nil, e.handleReuse(ctx, claims)
	}

	access, _, err := e.codec.SignAccess(e.config.Admin.UserID, e.config.Admin.Email, e.config.Admin.Role)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	newRefresh, newClaims, err := e.codec.SignRefresh(claims.UID, claims.FID)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	if err := e.families.SetCurrent(ctx, claims.FID, rec, newClaims.ID, e.config.familyTTL()); err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.UID, claims.FID, claims.ID, err, func() map[string]string {
			return map[string]string{"reason": "family_update_failed"}
		})
		return nil, ErrStoreUnavailable
	}

	// Blacklist the superseded token. Its entry must outlive its
	// signed expiry, so TTL is remaining lifetime plus the buffer.
	if err := e.revocations.Set(ctx, claims.ID, e.revocationTTL(claims.ExpiresAt.Time)); err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.UID, claims.FID, claims.ID, err, func() map[string]string {
			return map[string]string{"reason": "supersede_revocation_failed"}
		})
		return nil, ErrStoreUnavailable
	}
	e.metricInc(MetricTokenRevoked)

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, claims.UID, claims.FID, newClaims.ID, nil, nil)

	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

// handleReuse poisons the family and blacklists the presented token.
// The audit emission is fire-and-forget; store errors during cleanup
// are logged but never change the outcome — the caller is rejected
// regardless.
func (e *Engine) handleReuse(ctx context.Context, claims *token.RefreshClaims) error {
	e.metricInc(MetricReuseDetected)
	e.metricInc(MetricFamilyPoisoned)

	if err := e.families.Delete(ctx, claims.FID); err != nil {
		log.Print("gatekit: family poisoning delete failed")
	}
	if err := e.revocations.Set(ctx, claims.ID, e.revocationTTL(claims.ExpiresAt.Time)); err != nil {
		log.Print("gatekit: reuse revocation write failed")
	} else {
		e.metricInc(MetricTokenRevoked)
	}

	e.emitAudit(ctx, auditEventReuseDetected, false, claims.UID, claims.FID, claims.ID, ErrReuseDetected, nil)

	return ErrReuseDetected
}

// revocationTTL returns a TTL no shorter than the token's remaining
// lifetime plus the configured buffer. Expired or missing expiries
// still get the buffer so the entry exists at all.
func (e *Engine) revocationTTL(expiresAt time.Time) time.Duration {
	remaining := time.Until(expiresAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining + e.config.Store.RevocationBuffer
}
