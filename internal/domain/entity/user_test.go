package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUser_BeforeSave_HashesPlainPassword(t *testing.T) {
	user := &User{Username: "alice", Password: "secret-password"}

	require.NoError(t, user.BeforeSave(nil))

	assert.NotEqual(t, "secret-password", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret-password")))
}

func TestUser_BeforeSave_SkipsExistingHash(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &User{Username: "alice", Password: string(hashed)}
	require.NoError(t, user.BeforeSave(nil))

	assert.Equal(t, string(hashed), user.Password)
}

func TestUser_BeforeSave_SkipsEmptyPassword(t *testing.T) {
	// Wallet-only пользователи не имеют пароля
	user := &User{Username: "wallet-user"}
	require.NoError(t, user.BeforeSave(nil))
	assert.Empty(t, user.Password)
}

func TestUser_CheckPassword(t *testing.T) {
	user := &User{Username: "alice", Password: "secret-password"}
	require.NoError(t, user.BeforeSave(nil))

	assert.True(t, user.CheckPassword("secret-password"))
	assert.False(t, user.CheckPassword("wrong"))
}

func TestUser_GamesPlayed(t *testing.T) {
	user := &User{Wins: 3, Losses: 2}
	assert.Equal(t, int64(5), user.GamesPlayed())
}
