// Package auth provides password hashing, session tokens and one-time tokens.
package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and checks user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt PasswordHasher. A cost of 0 uses bcrypt.DefaultCost.
func NewBcryptHasher(cost int) PasswordHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h *bcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
