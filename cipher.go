package obfile

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// AESGCMEngine performs authenticated encryption with AES-256-GCM.
//
// Seal generates the nonce internally; callers never supply one, which rules
// out accidental (key, nonce) reuse as long as keys come from fresh salts.
type AESGCMEngine struct {
	aead cipher.AEAD
}

// NewAESGCMEngine creates a cipher engine for the given 32-byte key.
func NewAESGCMEngine(key []byte) (*AESGCMEngine, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: AES-256 requires a %d-byte key, got %d bytes",
			ErrInvalidKey, KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMEngine{aead: aead}, nil
}

// Seal encrypts plaintext with a freshly generated nonce and returns the
// ciphertext, nonce, and authentication tag as separate values. Ciphertext
// length equals plaintext length.
func (e *AESGCMEngine) Seal(plaintext []byte) (ciphertext, nonce, tag []byte, err error) {
	nonce = make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - e.aead.Overhead()
	return sealed[:split:split], nonce, sealed[split:], nil
}

// Open decrypts ciphertext and verifies the tag against (ciphertext, key,
// nonce). On any verification failure it returns ErrIntegrity and no
// plaintext.
func (e *AESGCMEngine) Open(ciphertext, nonce, tag []byte) ([]byte, error) {
	if len(nonce) != e.aead.NonceSize() || len(tag) != e.aead.Overhead() {
		return nil, ErrIntegrity
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}

// NonceSize returns the nonce size in bytes (12 for GCM).
func (e *AESGCMEngine) NonceSize() int {
	return e.aead.NonceSize()
}

// Overhead returns the authentication tag size in bytes (16 for GCM).
func (e *AESGCMEngine) Overhead() int {
	return e.aead.Overhead()
}
