// Package tokens generates and verifies opaque password-reset tokens.
//
// Only the hash of a token is ever persisted; the plaintext goes to the user
// by email and is otherwise discarded, so a database compromise alone never
// yields a usable token.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of a plaintext token: 32 bytes = 256 bits.
const tokenBytes = 32

// New produces a cryptographically random plaintext token (64 hex characters)
// together with its storage hash.
func New() (plaintext, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate reset token: %w", err)
	}

	plaintext = hex.EncodeToString(buf)
	return plaintext, Hash(plaintext), nil
}

// Hash returns the deterministic SHA-256 hex digest of a plaintext token.
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether plaintext hashes to storedHash, using a
// constant-time comparison so partial matches leak no timing signal.
func Verify(plaintext, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(plaintext)), []byte(storedHash)) == 1
}
