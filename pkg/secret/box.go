// Package secret seals API tokens before they are written to the settings table.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	prefix    = "sb1:"
	nonceSize = 24
)

// ErrDecrypt is returned when a sealed value cannot be opened with the configured key.
var ErrDecrypt = errors.New("secret: unable to decrypt value")

// Box seals and opens short secrets with NaCl secretbox.
// A Box built from an empty passphrase passes values through unchanged.
type Box struct {
	key     [32]byte
	enabled bool
}

// NewBox derives a 32-byte key from the passphrase.
func NewBox(passphrase string) *Box {
	b := &Box{}
	if strings.TrimSpace(passphrase) == "" {
		return b
	}
	b.key = sha256.Sum256([]byte(passphrase))
	b.enabled = true
	return b
}

// Seal encrypts plaintext. Empty values stay empty.
func (b *Box) Seal(plaintext string) (string, error) {
	if b == nil || !b.enabled || plaintext == "" {
		return plaintext, nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("secret: read nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return prefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. Values without the sealed prefix are returned as-is
// so rows written before encryption was enabled keep working.
func (b *Box) Open(value string) (string, error) {
	if !strings.HasPrefix(value, prefix) {
		return value, nil
	}
	if b == nil || !b.enabled {
		return "", ErrDecrypt
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil || len(raw) < nonceSize {
		return "", ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	opened, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(opened), nil
}

// Mask hides all but the last four characters of a token for display.
func Mask(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}
