package internal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Alphanumeric is the 62-symbol alphabet used for state tokens.
const Alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const maxRandomLength = 256

// RandomString samples length symbols uniformly from alphabet using crypto/rand.
func RandomString(length int, alphabet string) (string, error) {
	if length <= 0 || length > maxRandomLength {
		return "", errors.New("invalid random string length")
	}
	if len(alphabet) < 2 {
		return "", errors.New("alphabet too small")
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}

	out := b.String()
	if len(out) != length {
		return "", fmt.Errorf("invalid random string generation length")
	}
	return out, nil
}
