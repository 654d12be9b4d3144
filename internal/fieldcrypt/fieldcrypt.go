// Package fieldcrypt encrypts individual sensitive columns (names, emails, CPF,
// phone numbers, addresses) before they are written to the database.
//
// Each value is sealed with AES-256-GCM under a key derived with PBKDF2-SHA256
// from the configured secret and a fresh random salt. The stored form is the
// delimited string
//
//	hex(salt):hex(nonce):hex(tag):hex(ciphertext)
//
// When no secret is configured every operation returns its input unchanged.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize  = 16
	nonceSize = 12
	tagSize   = 16
	keySize   = 32
	separator = ":"

	// DefaultIterations is the PBKDF2 work factor used when none is configured.
	DefaultIterations = 100_000
)

// ErrDecrypt is returned when a value has the encrypted layout but fails authentication.
var ErrDecrypt = errors.New("fieldcrypt: failed to decrypt value")

// Cipher encrypts and decrypts string fields. A nil *Cipher is a valid pass-through.
type Cipher struct {
	secret     []byte
	iterations int
}

// New creates a Cipher for the given secret. An empty secret disables encryption.
func New(secret string, iterations int) *Cipher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Cipher{
		secret:     []byte(secret),
		iterations: iterations,
	}
}

// Enabled reports whether a secret is configured.
func (c *Cipher) Enabled() bool {
	return c != nil && len(c.secret) > 0
}

// Encrypt seals plaintext. Empty strings are returned unchanged.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if !c.Enabled() || plaintext == "" {
		return plaintext, nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	return strings.Join([]string{
		hex.EncodeToString(salt),
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, separator), nil
}

// Decrypt opens a value produced by Encrypt. Values that do not have the
// encrypted layout are treated as legacy plaintext and returned unchanged.
func (c *Cipher) Decrypt(value string) (string, error) {
	if !c.Enabled() || value == "" {
		return value, nil
	}

	salt, nonce, tag, ciphertext, ok := parse(value)
	if !ok {
		return value, nil
	}

	gcm, err := c.aead(salt)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}

// EncryptFields encrypts each referenced string in place.
func (c *Cipher) EncryptFields(fields ...*string) error {
	for _, f := range fields {
		if f == nil {
			continue
		}
		enc, err := c.Encrypt(*f)
		if err != nil {
			return err
		}
		*f = enc
	}
	return nil
}

// DecryptFields decrypts each referenced string in place.
func (c *Cipher) DecryptFields(fields ...*string) error {
	for _, f := range fields {
		if f == nil {
			continue
		}
		dec, err := c.Decrypt(*f)
		if err != nil {
			return err
		}
		*f = dec
	}
	return nil
}

// IsEncrypted reports whether value has the encrypted layout.
func IsEncrypted(value string) bool {
	_, _, _, _, ok := parse(value)
	return ok
}

func (c *Cipher) aead(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.secret, salt, c.iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}

func parse(value string) (salt, nonce, tag, ciphertext []byte, ok bool) {
	parts := strings.Split(value, separator)
	if len(parts) != 4 {
		return nil, nil, nil, nil, false
	}

	decoded := make([][]byte, len(parts))
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil {
			return nil, nil, nil, nil, false
		}
		decoded[i] = b
	}

	if len(decoded[0]) != saltSize || len(decoded[1]) != nonceSize || len(decoded[2]) != tagSize {
		return nil, nil, nil, nil, false
	}

	return decoded[0], decoded[1], decoded[2], decoded[3], true
}
