package gatekit

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	actionLogin   = "login"
	actionRefresh = "refresh"

	maxEmailLength  = 254
	maxSecretLength = 1024
)

// Login runs the credential verification gate and, on success, issues
// a fresh token pair starting a new rotation family.
//
// The gate short-circuits in a fixed order: structural validation,
// rate limit (a limited caller never reaches the credential check, so
// the limiter cannot be used as a timing oracle), constant-time
// identity comparison, then argon2 secret verification. Identity and
// secret failures produce the same ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, email, secret string) (*TokenPair, error) {
	if e == nil || e.hasher == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)

	if !validEmailShape(email) || secret == "" || len(secret) > maxSecretLength {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "structural_validation"}
		})
		return nil, ErrInvalidCredentials
	}

	if e.limiter != nil && e.config.RateLimit.LoginWindow > 0 {
		allowed, retryAfter := e.limiter.Allow(ctx, actionLogin, rateIdentifier(ip), e.config.RateLimit.LoginWindow)
		if !allowed {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", "", ErrRateLimited, func() map[string]string {
				return map[string]string{"retry_after": retryAfter.Round(time.Second).String()}
			})
			return nil, &RateLimitedError{RetryAfter: retryAfter}
		}
	}

	if !e.identityMatches(email) {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "identity_mismatch"}
		})
		return nil, ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(secret, e.config.Admin.SecretHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "secret_mismatch"}
		})
		return nil, ErrInvalidCredentials
	}

	if e.limiter != nil {
		// Limiter reset is best-effort: a failed reset must not block
		// a successful login.
		if err := e.limiter.Reset(ctx, actionLogin, rateIdentifier(ip)); err != nil {
			log.Print("gatekit: login limiter reset failed")
		}
	}

	pair, familyID, err := e.issuePair(ctx)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, e.config.Admin.UserID, familyID, "", err, func() map[string]string {
			return map[string]string{"reason": "issue_failed"}
		})
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, e.config.Admin.UserID, familyID, "", nil, nil)

	return pair, nil
}

// issuePair signs a new access/refresh pair and creates the family
// record anchoring the refresh token's rotation chain. Only reachable
// after the credential gate has passed.
func (e *Engine) issuePair(ctx context.Context) (*TokenPair, string, error) {
	admin := e.config.Admin
	familyID := uuid.NewString()

	access, _, err := e.codec.SignAccess(admin.UserID, admin.Email, admin.Role)
	if err != nil {
		return nil, familyID, err
	}

	refresh, refreshClaims, err := e.codec.SignRefresh(admin.UserID, familyID)
	if err != nil {
		return nil, familyID, err
	}

	if err := e.families.Create(ctx, familyID, admin.UserID, refreshClaims.ID, e.config.familyTTL()); err != nil {
		return nil, familyID, ErrStoreUnavailable
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, familyID, nil
}

// identityMatches compares the submitted email against the configured
// admin identity in constant time over fixed-length digests, so
// neither length nor prefix of the configured identity leaks.
func (e *Engine) identityMatches(email string) bool {
	digest := identityDigest(email)
	return subtle.ConstantTimeCompare(digest[:], e.adminDigest[:]) == 1
}

func identityDigest(email string) [32]byte {
	return sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
}

// validEmailShape is a structural check only; it decides whether the
// input is worth rate-limit and credential work, not whether the
// address is deliverable.
func validEmailShape(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	return !strings.Contains(email[at+1:], "@")
}

func rateIdentifier(ip string) string {
	if ip == "" {
		return "unknown"
	}
	return ip
}
