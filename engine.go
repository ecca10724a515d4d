package gatekit

import (
	"context"
	"log"
	"time"

	"github.com/avelldro/gatekit/internal/rate"
	"github.com/avelldro/gatekit/internal/stores"
	"github.com/avelldro/gatekit/password"
	"github.com/avelldro/gatekit/token"
)

// Principal is the authenticated identity a valid access token proves.
// Immutable per session; this system has a single privileged role.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

// TokenPair is the result of a successful login or rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Engine owns every acceptance decision of the token lifecycle:
// issuance after credential verification, refresh rotation with reuse
// detection, revocation, and blacklist checks. Construct it through
// [Builder.Build]; it is safe for concurrent use afterwards.
type Engine struct {
	config      Config
	codec       *token.Manager
	revocations *stores.Revocation
	families    *stores.Family
	limiter     *rate.Limiter
	hasher      *password.Argon2
	audit       *auditDispatcher
	metrics     *Metrics
	adminDigest [32]byte
}

// Close drains the audit dispatcher. Call once during shutdown.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because
// the dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// IsRevoked reports whether a token ID is blacklisted. Fails closed:
// when the store cannot be reached the token is reported revoked along
// with the transport error, so a store outage never un-revokes a
// still-valid signature.
func (e *Engine) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if e == nil || e.revocations == nil {
		return true, ErrEngineNotReady
	}

	revoked, err := e.revocations.IsSet(ctx, tokenID)
	if err != nil {
		e.metricInc(MetricRevocationCheckFailed)
		log.Print("gatekit: revocation check failed, failing closed")
		return true, ErrStoreUnavailable
	}
	return revoked, nil
}

// ValidateAccess verifies an access token's signature and expiry and
// checks the revocation blacklist. This is the check the session
// boundary must run before trusting any claims.
func (e *Engine) ValidateAccess(ctx context.Context, tokenStr string) (*Principal, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.VerifyAccess(tokenStr)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	revoked, err := e.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenInvalid
	}

	return &Principal{
		UserID: claims.UID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID, familyID, tokenID string,
	cause error,
	metadata func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		FamilyID:  familyID,
		TokenID:   tokenID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
