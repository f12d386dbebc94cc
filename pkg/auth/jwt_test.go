package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/duels-api/internal/domain/entity"
	apperrors "github.com/yourusername/duels-api/internal/pkg/errors"
)

func TestJWTService_GenerateAndParse(t *testing.T) {
	svc, err := NewJWTService("test-secret", 24)
	require.NoError(t, err)

	user := &entity.User{
		WalletAddress: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
		Role:          "user",
	}
	user.ID = 42

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, user.WalletAddress, claims.WalletAddress)
	assert.Equal(t, "user", claims.Role)
}

func TestJWTService_ParseInvalidToken(t *testing.T) {
	svc, err := NewJWTService("test-secret", 24)
	require.NoError(t, err)

	_, err = svc.ParseToken("not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestJWTService_WrongSecret(t *testing.T) {
	issuer, err := NewJWTService("secret-a", 24)
	require.NoError(t, err)
	verifier, err := NewJWTService("secret-b", 24)
	require.NoError(t, err)

	user := &entity.User{Role: "user"}
	user.ID = 1
	token, err := issuer.GenerateToken(user)
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService("", 24)
	assert.Error(t, err)
}
