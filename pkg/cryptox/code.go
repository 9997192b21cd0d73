package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DigitsAlphabet is the default alphabet for emailed one-time codes. Digits
// only, so codes survive being read out loud or typed on a phone.
const DigitsAlphabet = "0123456789"

// DefaultCodeLength is the default number of symbols in a one-time code.
const DefaultCodeLength = 6

// GenerateCode draws length symbols uniformly at random from alphabet using
// crypto/rand. One-time codes are guessable by brute force if the source is
// predictable, so a seedable PRNG is never acceptable here.
func GenerateCode(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("cryptox: code length must be positive, got %d", length)
	}
	if alphabet == "" {
		return "", fmt.Errorf("cryptox: code alphabet must not be empty")
	}

	code := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("cryptox: failed to generate random code: %w", err)
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}
