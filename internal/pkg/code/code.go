// Package code generates numeric verification codes for email ownership
// proofs.
package code

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var ten = big.NewInt(10)

// New returns a numeric code of n digits. Each digit is drawn independently
// and uniformly from 0-9, so leading zeros are possible and the code must
// be treated as a string, never an integer.
func New(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate code digit: %w", err)
		}
		b[i] = '0' + byte(d.Int64())
	}
	return string(b), nil
}
