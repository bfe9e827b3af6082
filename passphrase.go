package obfile

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"runtime"
	"syscall"

	"golang.org/x/term"
)

// PassphraseEnvVar allows non-interactive passphrase entry.
const PassphraseEnvVar = "OBFILE_PASSPHRASE"

// HashPassphrase returns the one-way SHA-256 digest of a raw passphrase.
// The digest is the key-derivation input, never the key itself, and is the
// only form of the passphrase kept for the duration of a batch.
func HashPassphrase(passphrase []byte) []byte {
	sum := sha256.Sum256(passphrase)
	return sum[:]
}

// ReadPassphraseHash prompts for a passphrase without echo and returns its
// hash. With confirm set, the passphrase must be entered twice; a mismatch
// returns ErrPassphraseMismatch before any key material is derived.
//
// If PassphraseEnvVar is set, its value is used without prompting and
// without confirmation.
func ReadPassphraseHash(confirm bool) ([]byte, error) {
	if envPass := os.Getenv(PassphraseEnvVar); envPass != "" {
		raw := []byte(envPass)
		defer zeroBytes(raw)
		return HashPassphrase(raw), nil
	}

	passphrase, err := readPassword("Enter Password: ")
	if err != nil {
		return nil, err
	}
	defer zeroBytes(passphrase)

	if !confirm {
		if len(passphrase) == 0 {
			return nil, ErrEmptyPassphrase
		}
		return HashPassphrase(passphrase), nil
	}

	again, err := readPassword("Re-enter Password: ")
	if err != nil {
		return nil, err
	}
	defer zeroBytes(again)

	return ConfirmPassphrase(passphrase, again)
}

// ConfirmPassphrase verifies the confirmation entry against the first entry
// and returns the passphrase hash. A mismatch or an empty passphrase fails
// before any key material is derived.
func ConfirmPassphrase(passphrase, confirmation []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if !bytes.Equal(passphrase, confirmation) {
		return nil, ErrPassphraseMismatch
	}
	return HashPassphrase(passphrase), nil
}

// readPassword reads a passphrase from the terminal with echo disabled.
// When stdin is piped, it falls back to /dev/tty so the passphrase never
// mixes with piped data.
func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	if term.IsTerminal(int(syscall.Stdin)) {
		passphrase, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		return passphrase, err
	}

	tty, err := os.Open("/dev/tty")
	if err != nil {
		if runtime.GOOS == "windows" {
			return nil, fmt.Errorf("passphrase must be set via %s when stdin is piped", PassphraseEnvVar)
		}
		return nil, fmt.Errorf("cannot read passphrase: stdin is piped and /dev/tty is unavailable, set %s", PassphraseEnvVar)
	}
	defer tty.Close()

	passphrase, err := term.ReadPassword(int(tty.Fd()))
	fmt.Fprintln(os.Stderr)
	return passphrase, err
}
