// Package gatekit implements the credential and token lifecycle for a
// two-token authentication scheme: short-lived JWT access tokens and
// long-lived rotating refresh tokens grouped into families, with
// Redis-backed revocation and reuse detection.
//
// The package is designed for concurrent server workloads: Engine
// methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Rotation protocol
//
// Every login starts a token family. Each refresh rotates the family's
// current token: the presented token is checked against the family
// record, superseded, and blacklisted. Presenting any non-current
// token of a family is treated as theft and poisons the whole chain.
// There is no distributed lock around rotation — concurrent rotations
// of the same token race, and the family-record mismatch on the next
// read is the deliberate safety net (race-then-detect).
//
// # Architecture boundaries
//
// gatekit is the public surface: [Engine], [Builder], [Config], audit
// sinks, and error sentinels. Store access and rate limiting live
// under internal/ and are never exported. The token codec and the
// argon2 verifier are separate importable packages.
//
// # What this package must NOT do
//
//   - Expose Redis clients or key layouts in its public API.
//   - Let a raw store error escape to HTTP callers (PublicMessage
//     collapses the taxonomy).
//   - Perform I/O during construction (Builder is allocation-only
//     until Build).
package gatekit
