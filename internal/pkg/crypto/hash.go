package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// HashToken returns the hex-encoded BLAKE2b-256 digest of token.
// Session tokens are only ever stored in this form.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidateHash reports whether s looks like a HashToken result.
func ValidateHash(s string) bool {
	if len(s) != blake2b.Size256*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
