// Package middleware exposes HTTP middleware adapters built on top of
// gatekit.Engine access-token validation.
//
// # Guards
//
//   - [Guard] — verifies the bearer access token and checks revocation.
//   - [RequireRole] — Guard plus an exact role match on the principal.
//
// Each guard reads the Authorization header, calls Engine.ValidateAccess,
// and injects the validated principal into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.ValidateAccess.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond what the principal carries.
package middleware
