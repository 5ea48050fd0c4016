package passcrypt

import (
	"errors"
	"strings"
	"testing"
)

func newKeyPair(t *testing.T) (*SM2Encryptor, *SM2Decryptor) {
	t.Helper()
	pub, priv, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	enc, err := NewSM2Encryptor(pub)
	if err != nil {
		t.Fatalf("NewSM2Encryptor: %v", err)
	}
	dec, err := NewSM2Decryptor(priv)
	if err != nil {
		t.Fatalf("NewSM2Decryptor: %v", err)
	}
	if dec.PublicKeyHex() != pub {
		t.Fatal("decryptor public key does not match generated key")
	}
	return enc, dec
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, dec := newKeyPair(t)

	ct, err := enc.Encrypt("admin123")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !strings.HasPrefix(ct, "04") {
		t.Fatalf("expected 04 prefix, got %q", ct[:4])
	}
	// 65-byte C1, 8-byte C2, 32-byte C3.
	if len(ct) != 2*(65+8+32) {
		t.Fatalf("unexpected ciphertext length %d", len(ct))
	}

	pt, err := dec.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if pt != "admin123" {
		t.Fatalf("expected admin123, got %q", pt)
	}
}

func TestDecryptAcceptsUnprefixedCiphertext(t *testing.T) {
	enc, dec := newKeyPair(t)
	ct, err := enc.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	pt, err := dec.Decrypt(strings.TrimPrefix(ct, "04"))
	if err != nil || pt != "secret" {
		t.Fatalf("expected secret, got %q err=%v", pt, err)
	}
}

func TestEncryptIsRandomized(t *testing.T) {
	enc, _ := newKeyPair(t)
	a, _ := enc.Encrypt("same")
	b, _ := enc.Encrypt("same")
	if a == b {
		t.Fatal("expected distinct ciphertexts for the same plaintext")
	}
}

func TestDefaultPublicKeyParses(t *testing.T) {
	enc, err := NewSM2Encryptor(DefaultPublicKey)
	if err != nil {
		t.Fatalf("default key rejected: %v", err)
	}
	ct, err := enc.Encrypt("admin123")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !strings.HasPrefix(ct, "04") {
		t.Fatal("expected 04 prefix")
	}
}

func TestEncryptRejectsEmptyPlaintext(t *testing.T) {
	enc, _ := newKeyPair(t)
	if _, err := enc.Encrypt(""); !errors.Is(err, ErrEmptyPlaintext) {
		t.Fatalf("expected ErrEmptyPlaintext, got %v", err)
	}
}

func TestInvalidKeys(t *testing.T) {
	for _, key := range []string{"", "zz", "04" + strings.Repeat("00", 64)} {
		if _, err := NewSM2Encryptor(key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("expected ErrInvalidKey for %q, got %v", key, err)
		}
	}
	if _, err := NewSM2Decryptor("not-hex"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, dec := newKeyPair(t)
	for _, ct := range []string{"", "xyz", "04deadbeef"} {
		if _, err := dec.Decrypt(ct); !errors.Is(err, ErrInvalidCiphertext) {
			t.Fatalf("expected ErrInvalidCiphertext for %q, got %v", ct, err)
		}
	}
}
