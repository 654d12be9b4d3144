package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// OneTimeTokenBytes is the entropy of verification and reset tokens.
const OneTimeTokenBytes = 32

// NewOneTimeToken returns a random hex token and the hash to persist.
func NewOneTimeToken() (token, hash string, err error) {
	buf := make([]byte, OneTimeTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, HashToken(token), nil
}

// HashToken returns the stored form of a one-time token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
