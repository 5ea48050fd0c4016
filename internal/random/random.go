// Package random draws secrets and numeric codes from crypto/rand.
package random

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// MaxDigits bounds [Digits].
const MaxDigits = 10

var ErrInvalidLength = errors.New("random: invalid length")

// Bytes returns n random bytes.
func Bytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Digits returns a uniformly drawn decimal code of exactly n digits,
// leading zeros included.
func Digits(n int) (string, error) {
	if n <= 0 || n > MaxDigits {
		return "", ErrInvalidLength
	}

	var b strings.Builder
	b.Grow(n)
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
