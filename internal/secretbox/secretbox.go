// Package secretbox provides symmetric encryption for small secret strings
// at rest using AES-256-GCM with a fresh random nonce per call.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

// Errors returned by Box operations.
var (
	// ErrInvalidKeySize indicates the key is not KeySize bytes long.
	ErrInvalidKeySize = errors.New("secretbox: key must be 32 bytes")

	// ErrDecrypt indicates the ciphertext could not be authenticated:
	// wrong key, wrong nonce, or corrupted data.
	ErrDecrypt = errors.New("secretbox: decryption failed")
)

// Box encrypts and decrypts with a single process-wide key. The key is
// configuration; it is never persisted alongside the ciphertext it protects.
type Box struct {
	aead cipher.AEAD
}

// New creates a Box from a 32-byte key.
func New(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &Box{aead: aead}, nil
}

// Encrypt encrypts plaintext and returns base64-encoded ciphertext and nonce.
// A fresh random nonce is generated on every call and never reused.
func (b *Box) Encrypt(plaintext string) (ciphertext, nonce string, err error) {
	raw := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", "", fmt.Errorf("rand nonce: %w", err)
	}

	sealed := b.aead.Seal(nil, raw, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), base64.StdEncoding.EncodeToString(raw), nil
}

// Decrypt reverses Encrypt. It returns ErrDecrypt when the key or nonce is
// wrong or the data has been tampered with.
func (b *Box) Decrypt(ciphertext, nonce string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("base64 decode ciphertext: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		return "", fmt.Errorf("base64 decode nonce: %w", err)
	}
	if len(raw) != b.aead.NonceSize() {
		return "", ErrDecrypt
	}

	plaintext, err := b.aead.Open(nil, raw, sealed, nil)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}
