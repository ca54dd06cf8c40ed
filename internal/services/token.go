package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// charset is base62; 62^8 is about 2.2e14 tokens at the default length.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	minTokenLength = 8
	maxTokenLength = 10
)

// TokenGenerator returns a random token of the given length.
type TokenGenerator func(length int) (string, error)

// GenerateToken draws a token from crypto/rand. The length is clamped to 8..10.
func GenerateToken(length int) (string, error) {
	length = clampTokenLength(length)
	token := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		token[i] = charset[n.Int64()]
	}
	return string(token), nil
}

func clampTokenLength(n int) int {
	if n < minTokenLength {
		return minTokenLength
	}
	if n > maxTokenLength {
		return maxTokenLength
	}
	return n
}

// validToken reports whether s could have been produced by GenerateToken.
func validToken(s string) bool {
	if len(s) < minTokenLength || len(s) > maxTokenLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
