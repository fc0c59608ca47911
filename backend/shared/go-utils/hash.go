// go-utils/hash.go

package utils

import (
	"crypto/sha256"
	"encoding/base64"
)

// HashToken returns the base64url SHA-256 digest of a raw token. Only the
// digest is ever persisted.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.URLEncoding.EncodeToString(sum[:])
}
