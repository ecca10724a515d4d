package middleware

import (
	"context"
	"net/http"
	"strings"

	gatekit "github.com/avelldro/gatekit"
)

type principalContextKey struct{}

// PrincipalFromContext returns the principal injected by [Guard], if any.
func PrincipalFromContext(ctx context.Context) (*gatekit.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*gatekit.Principal)
	return p, ok
}

// Guard returns middleware that requires a valid, non-revoked access token
// on every wrapped request. The validated principal is injected into the
// request context for downstream handlers.
func Guard(engine *gatekit.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			principal, err := engine.ValidateAccess(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole wraps [Guard] and additionally rejects principals whose role
// does not match.
func RequireRole(engine *gatekit.Engine, role string) func(http.Handler) http.Handler {
	guard := Guard(engine)
	return func(next http.Handler) http.Handler {
		return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || principal.Role != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
