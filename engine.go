package obfile

import (
	"fmt"
	"runtime"
)

// Engine orchestrates key derivation, sealing, and container construction
// for a single buffer. It is stateless apart from the derivation parameters
// and safe to reuse across files.
type Engine struct {
	params ScryptParams
}

// NewEngine creates an engine with the given derivation parameters.
func NewEngine(params ScryptParams) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scrypt params: %w", err)
	}
	return &Engine{params: params}, nil
}

// Params returns the derivation parameters the engine was created with.
func (e *Engine) Params() ScryptParams {
	return e.params
}

// Encrypt seals plaintext under a key derived from passphraseHash and a
// fresh random salt, and returns the resulting container with Filename set
// to name. Pure computation: persistence is the caller's responsibility.
func (e *Engine) Encrypt(plaintext, passphraseHash []byte, name string) (*Container, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}

	key, err := DeriveKey(passphraseHash, salt, e.params)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(key)

	cipher, err := NewAESGCMEngine(key)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, tag, err := cipher.Seal(plaintext)
	if err != nil {
		return nil, err
	}

	return &Container{
		Ciphertext: ciphertext,
		Salt:       salt,
		Nonce:      nonce,
		Tag:        tag,
		Filename:   name,
	}, nil
}

// Decrypt re-derives the key from the container's salt and opens the
// ciphertext. Tag verification failure is returned as ErrIntegrity with no
// plaintext; the error does not reveal whether the passphrase was wrong or
// the data was tampered with.
func (e *Engine) Decrypt(c *Container, passphraseHash []byte) ([]byte, error) {
	key, err := DeriveKey(passphraseHash, c.Salt, e.params)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(key)

	cipher, err := NewAESGCMEngine(key)
	if err != nil {
		return nil, err
	}

	return cipher.Open(c.Ciphertext, c.Nonce, c.Tag)
}

// zeroBytes overwrites a byte slice with zeros.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
