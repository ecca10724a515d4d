// Package password implements secret hashing and verification with Argon2id defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification reads the cost parameters out of the stored hash, so hashes
// produced under older settings keep verifying after a configuration change.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Credential policy and
// rate limiting are enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve secrets — callers supply plaintext and receive hashes.
//   - Import any other gatekit package.
//   - Log plaintext secrets or hash parameters at runtime.
package password
