// Package token signs and verifies the two credential kinds of the
// rotation protocol: short-lived access tokens and long-lived refresh
// tokens.
//
// # Claims
//
// Access tokens carry the authenticated identity (uid, email, role).
// Refresh tokens carry only uid and the rotation family ID (fid).
// Every token gets a unique jti at signing time; the jti is the handle
// the revocation store and family records operate on.
//
// # Architecture boundaries
//
// This package owns cryptographic encode/decode only. Rotation policy,
// reuse detection, and revocation decisions belong to the Engine.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Import gatekit or its internal packages.
package token
