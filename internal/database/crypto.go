package database

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
)

var ErrNoEncryptionKey = errors.New("no encryption key available: set ALFRED_ENCRYPTION_KEY")

// sealer encrypts token columns with AES-256-GCM. The nonce is prepended to
// the ciphertext. A nil sealer refuses every operation with ErrNoEncryptionKey.
type sealer struct {
	aead cipher.AEAD
}

// newSealer derives the AES key from passphrase with SHA-256
func newSealer(passphrase string) (*sealer, error) {
	if passphrase == "" {
		return nil, nil
	}
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &sealer{aead: aead}, nil
}

func (s *sealer) seal(plaintext string) ([]byte, error) {
	if s == nil {
		return nil, ErrNoEncryptionKey
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

func (s *sealer) open(sealed []byte) (string, error) {
	if s == nil {
		return "", ErrNoEncryptionKey
	}
	n := s.aead.NonceSize()
	if len(sealed) < n {
		return "", errors.New("ciphertext too short")
	}
	plaintext, err := s.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}
