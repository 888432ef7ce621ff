package util

import (
	"crypto/rand"
	"math/big"
)

const (
	digits       = "0123456789"
	asciiLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// DefaultRandomCharset is used by RandomString when no charset is given
	DefaultRandomCharset = digits + asciiLetters
	// DefaultRandomSize is used by RandomString when size is not positive
	DefaultRandomSize = 5
)

// RandomString returns a random string of the given size drawn from chars.
// Empty chars falls back to digits and ASCII letters.
func RandomString(size int, chars string) string {
	if size <= 0 {
		size = DefaultRandomSize
	}
	if chars == "" {
		chars = DefaultRandomCharset
	}

	set := []rune(chars)
	max := big.NewInt(int64(len(set)))
	out := make([]rune, size)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS source is broken
			panic("util: crypto/rand unavailable: " + err.Error())
		}
		out[i] = set[idx.Int64()]
	}

	return string(out)
}
