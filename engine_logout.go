package gatekit

import (
	"context"
	"log"
)

// Logout revokes an access token and, when a refresh token is
// supplied, ends its whole rotation family. It never fails from the
// caller's point of view: blocking logout on store health is a worse
// trade-off than a theoretically still-valid token existing briefly,
// so every error here is logged and swallowed.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) {
	if e == nil || e.codec == nil {
		return
	}

	var userID, familyID, tokenID string

	// The access token may already be expired or tampered with; a
	// structurally parseable jti is still worth blacklisting.
	if accessID := e.codec.ExtractID(accessToken); accessID != "" {
		tokenID = accessID
		if err := e.revocations.Set(ctx, accessID, e.config.JWT.AccessTTL+e.config.Store.RevocationBuffer); err != nil {
			log.Print("gatekit: logout access revocation failed")
		} else {
			e.metricInc(MetricTokenRevoked)
		}
	}

	if refreshToken != "" {
		if claims, err := e.codec.VerifyRefresh(refreshToken); err == nil {
			userID = claims.UID
			familyID = claims.FID
			// Deleting the family outright is stronger than advancing
			// the current token: the entire chain ends here.
			if err := e.families.Delete(ctx, claims.FID); err != nil {
				log.Print("gatekit: logout family delete failed")
			}
			if err := e.revocations.Set(ctx, claims.ID, e.revocationTTL(claims.ExpiresAt.Time)); err != nil {
				log.Print("gatekit: logout refresh revocation failed")
			} else {
				e.metricInc(MetricTokenRevoked)
			}
		} else if refreshID := e.codec.ExtractID(refreshToken); refreshID != "" {
			// Unverifiable but parseable: blacklist the id for the
			// longest lifetime it could still claim.
			if err := e.revocations.Set(ctx, refreshID, e.config.familyTTL()); err != nil {
				log.Print("gatekit: logout refresh revocation failed")
			} else {
				e.metricInc(MetricTokenRevoked)
			}
		}
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, userID, familyID, tokenID, nil, func() map[string]string {
		return map[string]string{"refresh_supplied": boolString(refreshToken != "")}
	})
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
