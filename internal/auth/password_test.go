package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "simple password", password: "password123"},
		{name: "short password", password: "a"},
		{name: "password with symbols", password: "p@$$w0rd!#%&"},
		{name: "unicode password", password: "пароль密碼"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, bcrypt.MinCost)
			require.NoError(t, err)
			require.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			assert.NoError(t, ComparePassword(hash, tt.password))
		})
	}
}

func TestComparePassword_Mismatch(t *testing.T) {
	hash, err := HashPassword("correct-password", bcrypt.MinCost)
	require.NoError(t, err)

	assert.Error(t, ComparePassword(hash, "wrong-password"))
	assert.Error(t, ComparePassword(hash, ""))
	assert.Error(t, ComparePassword(hash, "correct-password "))
}

func TestHashPassword_SaltedOutput(t *testing.T) {
	first, err := HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)

	// Random salt means two hashes of the same password never match, but
	// both still verify.
	assert.NotEqual(t, first, second)
	assert.NoError(t, ComparePassword(first, "password123"))
	assert.NoError(t, ComparePassword(second, "password123"))
}
