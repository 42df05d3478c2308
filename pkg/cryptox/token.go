// Package cryptox holds the small crypto helpers shared across the service.
package cryptox

import (
	"encoding/base64"

	"golang.org/x/crypto/blake2b"
)

// FingerprintToken returns a short deterministic BLAKE2b fingerprint of a
// token value. Token values must never appear in logs or metrics; log the
// fingerprint instead. The fingerprint is truncated to 128 bits and
// base64url-encoded (22 chars).
func FingerprintToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:16])
}
