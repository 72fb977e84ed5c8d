package util

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// ResetTokenLength is the byte length of a reset token before hex encoding.
const ResetTokenLength = 32

// ErrEntropyUnavailable is returned when the random source cannot supply bytes.
var ErrEntropyUnavailable = errors.New("entropy unavailable")

// TokenGenerator produces opaque, unpredictable tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// RandomTokenGenerator reads ResetTokenLength bytes from a random source and
// renders them as lowercase hex.
type RandomTokenGenerator struct {
	source io.Reader
}

// NewRandomTokenGenerator returns a generator backed by crypto/rand.
func NewRandomTokenGenerator() *RandomTokenGenerator {
	return &RandomTokenGenerator{source: rand.Reader}
}

// NewTokenGeneratorFromReader uses r as the random source.
func NewTokenGeneratorFromReader(r io.Reader) *RandomTokenGenerator {
	return &RandomTokenGenerator{source: r}
}

// Generate returns a 64-character hex token.
func (g *RandomTokenGenerator) Generate() (string, error) {
	buf := make([]byte, ResetTokenLength)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}
	return hex.EncodeToString(buf), nil
}
