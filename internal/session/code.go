// SPDX-License-Identifier: MIT

package session

import (
	"crypto/rand"
	"math/big"
)

// codeAlphabet spans base36: uppercase letters and digits.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// randomCode returns a 6-character uppercase alphanumeric session code.
// Uniqueness is enforced by rejection sampling against the store, not here.
func randomCode() string {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is
			// broken; there is no meaningful recovery.
			panic(err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf)
}
