package util

import (
	"bytes"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexToken = regexp.MustCompile(`^[0-9a-f]{64}$`)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestRandomTokenGenerator_Format(t *testing.T) {
	token, err := NewRandomTokenGenerator().Generate()
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Regexp(t, hexToken, token)
}

func TestRandomTokenGenerator_Unique(t *testing.T) {
	gen := NewRandomTokenGenerator()
	seen := make(map[string]struct{}, 10000)

	for i := 0; i < 10000; i++ {
		token, err := gen.Generate()
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup, "duplicate token after %d calls", i)
		seen[token] = struct{}{}
	}
}

func TestRandomTokenGenerator_EntropyFailure(t *testing.T) {
	token, err := NewTokenGeneratorFromReader(failingReader{}).Generate()
	assert.ErrorIs(t, err, ErrEntropyUnavailable)
	assert.Empty(t, token)
}

func TestRandomTokenGenerator_ShortRead(t *testing.T) {
	gen := NewTokenGeneratorFromReader(bytes.NewReader(make([]byte, 10)))
	_, err := gen.Generate()
	assert.ErrorIs(t, err, ErrEntropyUnavailable)
}

func TestRandomTokenGenerator_Deterministic(t *testing.T) {
	gen := NewTokenGeneratorFromReader(bytes.NewReader(bytes.Repeat([]byte{0xab}, ResetTokenLength)))
	token, err := gen.Generate()
	require.NoError(t, err)
	assert.Equal(t, string(bytes.Repeat([]byte("ab"), ResetTokenLength)), token)
}
