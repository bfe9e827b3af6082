package obfile

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrIntegrity is returned when tag verification fails. A wrong
	// passphrase and a tampered container both produce this error; the two
	// causes are deliberately indistinguishable.
	ErrIntegrity = errors.New("integrity check failed - wrong passphrase or corrupted data")

	// ErrMalformedContainer is returned when container bytes do not decode
	// into the expected fields (truncated stream, bad magic, trailing
	// garbage).
	ErrMalformedContainer = errors.New("malformed container")

	// ErrPassphraseMismatch is returned when the confirmation entry does
	// not match the first passphrase entry.
	ErrPassphraseMismatch = errors.New("passphrases do not match")

	// ErrEmptyPassphrase is returned when an empty passphrase is entered.
	ErrEmptyPassphrase = errors.New("passphrase cannot be empty")

	// ErrInvalidKey is returned when a key of the wrong size reaches the
	// cipher layer.
	ErrInvalidKey = errors.New("invalid encryption key")
)

// BatchError records a per-file failure inside a batch. The remaining files
// of the batch are still processed.
type BatchError struct {
	Path string // the input path the failure belongs to
	Op   string // "read", "parse", "decrypt", "encrypt", "write", "pack", "unpack", "remove"
	Err  error  // underlying error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// NamingWarning reports that the original output name could not be inferred
// from an artifact name and a fallback name was used instead. It is
// informational, not a failure.
type NamingWarning struct {
	Artifact string // artifact path missing the expected suffix
	Output   string // fallback output path that was written
}

func (w *NamingWarning) String() string {
	return fmt.Sprintf("artifact %q does not end in %q, decrypted output saved as %q",
		w.Artifact, EncSuffix, w.Output)
}

// IsIntegrity reports whether err is an integrity failure.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// IsMalformedContainer reports whether err is a container parse failure.
func IsMalformedContainer(err error) bool {
	return errors.Is(err, ErrMalformedContainer)
}

// IsBatchError checks if an error is a per-file batch failure.
func IsBatchError(err error) bool {
	var be *BatchError
	return errors.As(err, &be)
}
