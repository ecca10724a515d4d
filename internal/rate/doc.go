// Package rate enforces per-(action, identifier) attempt cooldowns for
// security-sensitive operations.
//
// # Window semantics
//
// Cooldown windows: the first attempt in a window is allowed and
// starts the window (SET NX EX); every attempt before the window
// elapses is denied with a retry-after hint. Keys live under "rl:".
//
// # Availability
//
// Redis is authoritative so limits hold across server instances. When
// Redis is unreachable the limiter fails open to a bounded in-process
// map — rate limiting must never depend on the shared store being up.
// This is the deliberate inverse of the revocation store, which fails
// closed.
//
// # What this package must NOT do
//
//   - Decide which actions are limited (the Engine owns policy).
//   - Be imported outside the gatekit module.
package rate
