package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	h, err := HashPassword("password", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "password", h)

	require.True(t, CheckPassword(h, "password"))
	require.False(t, CheckPassword(h, "wrong"))
}

func TestHashPasswordInvalidCostFallsBack(t *testing.T) {
	h, err := HashPassword("password", -1)
	require.NoError(t, err)
	require.True(t, CheckPassword(h, "password"))
}

func TestHashIsSalted(t *testing.T) {
	h1, err := HashPassword("password", bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := HashPassword("password", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}
