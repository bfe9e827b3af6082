package obfile

import "fmt"

const (
	// SaltSize is the number of random salt bytes generated per encryption
	SaltSize = 32

	// KeySize is the derived key size in bytes (AES-256)
	KeySize = 32

	// EncSuffix is appended to a source file name to form the artifact name
	EncSuffix = ".enc"

	// RestoredSuffix marks decrypted output whose original name could not
	// be recovered from the artifact name
	RestoredSuffix = ".restored"
)

// ScryptParams contains cost parameters for scrypt key derivation.
//
// Encrypt and decrypt must use identical parameters: a container written
// with one parameter set is not decryptable under another. The parameters
// are deliberately an explicit value rather than package state so tests can
// run with cheap settings.
type ScryptParams struct {
	N      int // CPU/memory cost factor, must be a power of two > 1
	R      int // block size parameter
	P      int // parallelization parameter
	KeyLen int // derived key size in bytes
}

// DefaultScryptParams returns the production cost parameters.
func DefaultScryptParams() ScryptParams {
	return ScryptParams{
		N:      1 << 20,
		R:      8,
		P:      1,
		KeyLen: KeySize,
	}
}

// Validate checks that the parameters are usable.
func (p ScryptParams) Validate() error {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return fmt.Errorf("scrypt N must be a power of two > 1, got %d", p.N)
	}
	if p.R <= 0 {
		return fmt.Errorf("scrypt r must be positive, got %d", p.R)
	}
	if p.P <= 0 {
		return fmt.Errorf("scrypt p must be positive, got %d", p.P)
	}
	if p.KeyLen <= 0 {
		return fmt.Errorf("scrypt key length must be positive, got %d", p.KeyLen)
	}
	return nil
}
