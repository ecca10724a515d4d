// Package stores provides the two Redis-backed record stores the
// rotation protocol depends on: the token revocation blacklist and the
// rotation family registry.
//
// # Design
//
// Both stores are pure TTL key/value layers. Revocation entries live
// under "rvk:", family records under "fam:"; the rate limiter owns a
// third namespace ("rl:") so the key spaces never collide. Every call
// runs under a bounded timeout and transport failures wrap
// ErrStoreUnavailable.
//
// # Architecture boundaries
//
// This package owns persistence only. TTL selection, reuse detection,
// and every acceptance decision belong to the Engine.
//
// # What this package must NOT do
//
//   - Parse or verify tokens.
//   - Import gatekit or the token package.
//   - Add distributed locking around family writes.
package stores
