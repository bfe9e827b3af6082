package obfile

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// DeriveKey derives a symmetric key from a passphrase hash and a salt using
// scrypt with the given cost parameters.
//
// Both inputs are treated as opaque byte strings and fed to scrypt directly,
// never through a textual representation. Derivation is deterministic: the
// same (passphraseHash, salt, params) always yields the same key, which is
// what makes decryption possible.
func DeriveKey(passphraseHash, salt []byte, params ScryptParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(passphraseHash) == 0 {
		return nil, errors.New("passphrase hash cannot be empty")
	}
	if len(salt) == 0 {
		return nil, errors.New("salt cannot be empty")
	}

	key, err := scrypt.Key(passphraseHash, salt, params.N, params.R, params.P, params.KeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt derivation failed: %w", err)
	}
	return key, nil
}

// GenerateSalt returns SaltSize fresh random bytes. A new salt is generated
// for every encryption so the derived key is never reused.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}
