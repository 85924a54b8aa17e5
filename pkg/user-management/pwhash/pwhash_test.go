package pwhash

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	InitArgonParams(8*1024, 1, 1)

	t.Run("hash is salted and verifiable", func(t *testing.T) {
		h1, err := HashPassword("secret1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		h2, _ := HashPassword("secret1")
		if h1 == h2 {
			t.Error("hashes of the same password should differ")
		}
		if strings.Contains(h1, "secret1") {
			t.Error("hash must not contain the plaintext")
		}

		ok, err := ComparePasswordWithHash(h1, "secret1")
		if err != nil || !ok {
			t.Errorf("expected match, got %v, %v", ok, err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		h, _ := HashPassword("secret1")
		ok, err := ComparePasswordWithHash(h, "secret2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("should not match")
		}
	})

	t.Run("malformed hash", func(t *testing.T) {
		if _, err := ComparePasswordWithHash("plain", "secret1"); err != ErrInvalidHash {
			t.Errorf("expected ErrInvalidHash, got %v", err)
		}
		if _, err := ComparePasswordWithHash("$argon2id$v=1$m=1,t=1,p=1$aa$bb", "x"); err != ErrIncompatibleVersion {
			t.Errorf("expected ErrIncompatibleVersion, got %v", err)
		}
	})
}
