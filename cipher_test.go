package obfile

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

func TestAESGCM_SealOpen(t *testing.T) {
	engine, err := NewAESGCMEngine(testKey(t))
	if err != nil {
		t.Fatalf("NewAESGCMEngine failed: %v", err)
	}

	plaintext := []byte("attack at dawn")
	ciphertext, nonce, tag, err := engine.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	if len(ciphertext) != len(plaintext) {
		t.Errorf("ciphertext length = %d, want %d (no padding)", len(ciphertext), len(plaintext))
	}
	if len(nonce) != engine.NonceSize() {
		t.Errorf("nonce length = %d, want %d", len(nonce), engine.NonceSize())
	}
	if len(tag) != engine.Overhead() {
		t.Errorf("tag length = %d, want %d", len(tag), engine.Overhead())
	}

	opened, err := engine.Open(ciphertext, nonce, tag)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("Open returned %q, want %q", opened, plaintext)
	}
}

func TestAESGCM_EmptyPlaintext(t *testing.T) {
	engine, err := NewAESGCMEngine(testKey(t))
	if err != nil {
		t.Fatalf("NewAESGCMEngine failed: %v", err)
	}

	ciphertext, nonce, tag, err := engine.Seal(nil)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if len(ciphertext) != 0 {
		t.Errorf("ciphertext length = %d, want 0", len(ciphertext))
	}

	opened, err := engine.Open(ciphertext, nonce, tag)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(opened) != 0 {
		t.Errorf("Open returned %d bytes, want 0", len(opened))
	}
}

func TestAESGCM_TamperDetection(t *testing.T) {
	engine, err := NewAESGCMEngine(testKey(t))
	if err != nil {
		t.Fatalf("NewAESGCMEngine failed: %v", err)
	}

	plaintext := []byte("sensitive payload with enough bytes to flip")
	ciphertext, nonce, tag, err := engine.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	flip := func(b []byte, bit int) []byte {
		out := append([]byte(nil), b...)
		out[bit/8] ^= 1 << (bit % 8)
		return out
	}

	t.Run("ciphertext", func(t *testing.T) {
		for bit := 0; bit < len(ciphertext)*8; bit += 7 {
			if _, err := engine.Open(flip(ciphertext, bit), nonce, tag); !errors.Is(err, ErrIntegrity) {
				t.Fatalf("bit %d: got %v, want ErrIntegrity", bit, err)
			}
		}
	})
	t.Run("nonce", func(t *testing.T) {
		for bit := 0; bit < len(nonce)*8; bit++ {
			if _, err := engine.Open(ciphertext, flip(nonce, bit), tag); !errors.Is(err, ErrIntegrity) {
				t.Fatalf("bit %d: got %v, want ErrIntegrity", bit, err)
			}
		}
	})
	t.Run("tag", func(t *testing.T) {
		for bit := 0; bit < len(tag)*8; bit++ {
			if _, err := engine.Open(ciphertext, nonce, flip(tag, bit)); !errors.Is(err, ErrIntegrity) {
				t.Fatalf("bit %d: got %v, want ErrIntegrity", bit, err)
			}
		}
	})
}

func TestAESGCM_WrongKey(t *testing.T) {
	engine1, _ := NewAESGCMEngine(testKey(t))
	engine2, _ := NewAESGCMEngine(testKey(t))

	ciphertext, nonce, tag, err := engine1.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	if _, err := engine2.Open(ciphertext, nonce, tag); !errors.Is(err, ErrIntegrity) {
		t.Errorf("Open under a different key: got %v, want ErrIntegrity", err)
	}
}

func TestAESGCM_TruncatedNonceAndTag(t *testing.T) {
	engine, _ := NewAESGCMEngine(testKey(t))

	ciphertext, nonce, tag, err := engine.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	if _, err := engine.Open(ciphertext, nonce[:len(nonce)-1], tag); !errors.Is(err, ErrIntegrity) {
		t.Errorf("short nonce: got %v, want ErrIntegrity", err)
	}
	if _, err := engine.Open(ciphertext, nonce, tag[:len(tag)-1]); !errors.Is(err, ErrIntegrity) {
		t.Errorf("short tag: got %v, want ErrIntegrity", err)
	}
	if _, err := engine.Open(ciphertext, nil, tag); !errors.Is(err, ErrIntegrity) {
		t.Errorf("nil nonce: got %v, want ErrIntegrity", err)
	}
}

func TestAESGCM_NonceUniqueness(t *testing.T) {
	engine, _ := NewAESGCMEngine(testKey(t))

	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		_, nonce, _, err := engine.Seal([]byte("same plaintext"))
		if err != nil {
			t.Fatalf("Seal failed: %v", err)
		}
		if seen[string(nonce)] {
			t.Fatal("nonce reused across two Seal calls")
		}
		seen[string(nonce)] = true
	}
}

func TestNewAESGCMEngine_BadKeySize(t *testing.T) {
	for _, size := range []int{0, 16, 24, 31, 33, 64} {
		if _, err := NewAESGCMEngine(make([]byte, size)); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("key size %d: got %v, want ErrInvalidKey", size, err)
		}
	}
}
