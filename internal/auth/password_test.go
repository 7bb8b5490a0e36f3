package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/command-center/internal/auth"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, auth.ComparePassword(hash, "correct horse"))
	require.Error(t, auth.ComparePassword(hash, "wrong"))
}

func TestHashPassword_OutOfRangeCostFallsBackToDefault(t *testing.T) {
	hash, err := auth.HashPassword("correct horse", 99)
	require.NoError(t, err)
	require.NoError(t, auth.ComparePassword(hash, "correct horse"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, bcrypt.DefaultCost, cost)
}
