package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret")

	token, err := m.Generate(42)
	require.NoError(t, err)

	userID, err := m.Validate(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)
}

func TestTokenRejectedWithWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret").Generate(42)
	require.NoError(t, err)

	_, err = NewTokenManager("other").Validate(token)
	require.Error(t, err)
}

func TestTokenRejectedWhenMalformed(t *testing.T) {
	_, err := NewTokenManager("secret").Validate("not-a-token")
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("p")
	require.NoError(t, err)
	require.NotEqual(t, "p", hash)

	require.True(t, CheckPasswordHash("p", hash))
	require.False(t, CheckPasswordHash("wrong", hash))
}
