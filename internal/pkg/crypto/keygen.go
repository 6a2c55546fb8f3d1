// Package crypto provides token generation and hashing for Faculty Files.
package crypto

import (
	"crypto/rand"
	"fmt"
)

const (
	// SessionTokenLength is the length of generated session tokens.
	SessionTokenLength = 48

	// tokenChars is URL and cookie safe. Its length divides 256, so
	// mapping random bytes onto it is unbiased.
	tokenChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
)

// GenerateSessionToken generates a random session token.
func GenerateSessionToken() (string, error) {
	return generateRandomString(SessionTokenLength, tokenChars)
}

// generateRandomString generates a random string of the specified length
// using characters from the provided character set.
func generateRandomString(length int, charset string) (string, error) {
	result := make([]byte, length)
	charsetLen := len(charset)

	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	for i := 0; i < length; i++ {
		result[i] = charset[int(randomBytes[i])%charsetLen]
	}

	return string(result), nil
}
