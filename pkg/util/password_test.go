package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{
			name:     "Valid password",
			password: "password123",
		},
		{
			name:     "Single character",
			password: "x",
		},
		{
			name:     "Special characters",
			password: "p@ss-w0rd!#$%^&*()",
		},
	}

	hasher := NewBcryptHasher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)

			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)
			assert.Contains(t, hash, "$2a$")

			cost, err := bcrypt.Cost([]byte(hash))
			require.NoError(t, err)
			assert.Equal(t, 12, cost)
		})
	}
}

func TestVerify(t *testing.T) {
	hasher := NewBcryptHasher()
	password := "mySecurePassword123"
	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	tests := []struct {
		name    string
		hash    string
		input   string
		want    bool
		wantErr error
	}{
		{
			name:  "Correct password",
			hash:  hash,
			input: password,
			want:  true,
		},
		{
			name:  "Incorrect password",
			hash:  hash,
			input: "wrongPassword",
			want:  false,
		},
		{
			name:  "Empty password",
			hash:  hash,
			input: "",
			want:  false,
		},
		{
			name:    "Malformed hash",
			hash:    "invalid-hash",
			input:   password,
			want:    false,
			wantErr: ErrMalformedHash,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := hasher.Verify(tt.input, tt.hash)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestHashPasswordSalting(t *testing.T) {
	hasher := NewBcryptHasher()
	password := "testPassword"

	hash1, err1 := hasher.Hash(password)
	hash2, err2 := hasher.Hash(password)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.NotEqual(t, hash1, hash2)

	for _, hash := range []string{hash1, hash2} {
		ok, err := hasher.Verify(password, hash)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := hasher.Verify("other", hash1)
	require.NoError(t, err)
	assert.False(t, ok)
}
