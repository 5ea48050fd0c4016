package passcrypt

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emmansun/gmsm/sm2"
)

// DefaultPublicKey is the public key the admin console ships with.
const DefaultPublicKey = "04969f1a494fafc1e5075dd0562924d773dbcefb726f11ac45adc4abea445a8fec6ef75266070f9c20782c9b686c992d83b5f5670bfe6f56f5e05a1e9ac53a2a4f"

var (
	// ErrInvalidKey is returned for keys that are not valid SM2 keys.
	ErrInvalidKey = errors.New("invalid sm2 key")
	// ErrEmptyPlaintext is returned when asked to encrypt an empty string.
	ErrEmptyPlaintext = errors.New("empty plaintext")
	// ErrInvalidCiphertext is returned when a ciphertext cannot be decoded or decrypted.
	ErrInvalidCiphertext = errors.New("invalid sm2 ciphertext")
)

const pointPrefix = 0x04

// Encryptor turns a plaintext password into its wire form.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
}

// EncryptorFunc adapts a function to [Encryptor].
type EncryptorFunc func(plaintext string) (string, error)

func (f EncryptorFunc) Encrypt(plaintext string) (string, error) { return f(plaintext) }

// SM2Encryptor encrypts with a fixed SM2 public key.
type SM2Encryptor struct {
	pub    *ecdsa.PublicKey
	random io.Reader
}

// NewSM2Encryptor parses publicKeyHex, the hex form of an uncompressed point
// (04 || X || Y).
func NewSM2Encryptor(publicKeyHex string) (*SM2Encryptor, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(publicKeyHex))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	pub, err := sm2.NewPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &SM2Encryptor{pub: pub, random: rand.Reader}, nil
}

// Encrypt returns hex(04 || C1.X || C1.Y || C2 || C3).
func (e *SM2Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}
	opts := sm2.NewPlainEncrypterOpts(sm2.MarshalUncompressed, sm2.C1C2C3)
	ct, err := sm2.Encrypt(e.random, e.pub, []byte(plaintext), opts)
	if err != nil {
		return "", fmt.Errorf("sm2 encrypt: %w", err)
	}
	return hex.EncodeToString(ct), nil
}

// SM2Decryptor recovers plaintexts produced by [SM2Encryptor].
type SM2Decryptor struct {
	priv *sm2.PrivateKey
}

// NewSM2Decryptor parses privateKeyHex, the 32-byte scalar in hex.
func NewSM2Decryptor(privateKeyHex string) (*SM2Decryptor, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(privateKeyHex))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	priv, err := sm2.NewPrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &SM2Decryptor{priv: priv}, nil
}

// Decrypt accepts ciphertexts with or without the leading 04 point marker.
func (d *SM2Decryptor) Decrypt(ciphertextHex string) (string, error) {
	ct, err := hex.DecodeString(strings.TrimSpace(ciphertextHex))
	if err != nil || len(ct) == 0 {
		return "", ErrInvalidCiphertext
	}
	if ct[0] != pointPrefix {
		ct = append([]byte{pointPrefix}, ct...)
	}
	pt, err := d.priv.Decrypt(nil, ct, sm2.NewPlainDecrypterOpts(sm2.C1C2C3))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	return string(pt), nil
}

// PublicKeyHex returns the uncompressed public point matching d.
func (d *SM2Decryptor) PublicKeyHex() string {
	return encodePublic(&d.priv.PublicKey)
}

// GenerateKeyPair creates a fresh SM2 key pair in the hex forms accepted by
// [NewSM2Encryptor] and [NewSM2Decryptor].
func GenerateKeyPair() (publicKeyHex, privateKeyHex string, err error) {
	priv, err := sm2.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate sm2 key: %w", err)
	}
	d := make([]byte, 32)
	priv.D.FillBytes(d)
	return encodePublic(&priv.PublicKey), hex.EncodeToString(d), nil
}

func encodePublic(pub *ecdsa.PublicKey) string {
	buf := make([]byte, 65)
	buf[0] = pointPrefix
	pub.X.FillBytes(buf[1:33])
	pub.Y.FillBytes(buf[33:])
	return hex.EncodeToString(buf)
}
