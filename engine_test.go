package obfile

import (
	"bytes"
	"errors"
	"testing"
)

func TestEngine_RoundTrip(t *testing.T) {
	engine := testEngine(t)
	hash := HashPassphrase([]byte("correct"))

	plaintexts := [][]byte{
		[]byte("hi"),
		nil,
		[]byte("a longer plaintext spanning more than one AES block, with some repetition repetition repetition"),
		bytes.Repeat([]byte{0x42}, 4096),
	}

	for _, plaintext := range plaintexts {
		c, err := engine.Encrypt(plaintext, hash, "hello.txt")
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		if c.Filename != "hello.txt" {
			t.Errorf("Filename = %q, want %q", c.Filename, "hello.txt")
		}
		if len(c.Salt) != SaltSize {
			t.Errorf("salt size = %d, want %d", len(c.Salt), SaltSize)
		}
		if len(c.Ciphertext) != len(plaintext) {
			t.Errorf("ciphertext length = %d, want %d", len(c.Ciphertext), len(plaintext))
		}

		got, err := engine.Decrypt(c, hash)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("Decrypt returned %d bytes, want original %d bytes", len(got), len(plaintext))
		}
	}
}

func TestEngine_SerializedRoundTrip(t *testing.T) {
	engine := testEngine(t)
	hash := HashPassphrase([]byte("correct"))

	c, err := engine.Encrypt([]byte("hi"), hash, "hello.txt")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	blob, err := c.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	parsed, err := UnmarshalContainer(blob)
	if err != nil {
		t.Fatalf("UnmarshalContainer failed: %v", err)
	}

	got, err := engine.Decrypt(parsed, hash)
	if err != nil {
		t.Fatalf("Decrypt after serialization failed: %v", err)
	}
	if !bytes.Equal(got, []byte("hi")) {
		t.Errorf("Decrypt = %q, want %q", got, "hi")
	}
}

func TestEngine_WrongPassphrase(t *testing.T) {
	engine := testEngine(t)

	c, err := engine.Encrypt([]byte("hi"), HashPassphrase([]byte("correct")), "hello.txt")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := engine.Decrypt(c, HashPassphrase([]byte("wrong"))); !errors.Is(err, ErrIntegrity) {
		t.Errorf("wrong passphrase: got %v, want ErrIntegrity", err)
	}
}

func TestEngine_SaltUniqueness(t *testing.T) {
	engine := testEngine(t)
	hash := HashPassphrase([]byte("correct"))
	plaintext := []byte("identical input")

	c1, err := engine.Encrypt(plaintext, hash, "f")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	c2, err := engine.Encrypt(plaintext, hash, "f")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if bytes.Equal(c1.Salt, c2.Salt) {
		t.Error("two encryptions reused a salt")
	}
	if bytes.Equal(c1.Nonce, c2.Nonce) {
		t.Error("two encryptions reused a nonce")
	}
	if bytes.Equal(c1.Ciphertext, c2.Ciphertext) {
		t.Error("identical plaintext produced identical ciphertext across encryptions")
	}
}

// Flipping any bit of the authenticated fields must fail closed. The
// filename is deliberately excluded: it is informational metadata.
func TestEngine_TamperedContainer(t *testing.T) {
	engine := testEngine(t)
	hash := HashPassphrase([]byte("correct"))

	fields := []struct {
		name string
		get  func(c *Container) []byte
	}{
		{"ciphertext", func(c *Container) []byte { return c.Ciphertext }},
		{"salt", func(c *Container) []byte { return c.Salt }},
		{"nonce", func(c *Container) []byte { return c.Nonce }},
		{"tag", func(c *Container) []byte { return c.Tag }},
	}

	for _, field := range fields {
		t.Run(field.name, func(t *testing.T) {
			c, err := engine.Encrypt([]byte("payload worth protecting"), hash, "hello.txt")
			if err != nil {
				t.Fatalf("Encrypt failed: %v", err)
			}

			target := field.get(c)
			for bit := 0; bit < len(target)*8; bit += 5 {
				target[bit/8] ^= 1 << (bit % 8)
				if _, err := engine.Decrypt(c, hash); !errors.Is(err, ErrIntegrity) {
					t.Fatalf("flipped bit %d of %s: got %v, want ErrIntegrity", bit, field.name, err)
				}
				target[bit/8] ^= 1 << (bit % 8)
			}

			// Untampered again, it must still decrypt.
			if _, err := engine.Decrypt(c, hash); err != nil {
				t.Fatalf("restored container failed to decrypt: %v", err)
			}
		})
	}
}

func TestNewEngine_InvalidParams(t *testing.T) {
	if _, err := NewEngine(ScryptParams{}); err == nil {
		t.Error("zero params should be rejected")
	}
	if _, err := NewEngine(ScryptParams{N: 3, R: 8, P: 1, KeyLen: 32}); err == nil {
		t.Error("non-power-of-two N should be rejected")
	}
}

func TestEngine_Params(t *testing.T) {
	engine := testEngine(t)
	if engine.Params() != testParams() {
		t.Errorf("Params() = %+v, want %+v", engine.Params(), testParams())
	}
}
