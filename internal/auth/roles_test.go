package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestRolesFromToken(t *testing.T) {
	t.Run("Should decode roles claim", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"roles": []string{"ADMIN", "MODERATOR"}})
		roles := RolesFromToken(token)

		assert.True(t, roles.Has("ADMIN"))
		assert.True(t, roles.Has("MODERATOR"))
		assert.False(t, roles.Has("USER"))
	})

	t.Run("Moderator can view but not administer", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"roles": []string{"MODERATOR"}})
		roles := RolesFromToken(token)

		assert.True(t, roles.CanModerate())
		assert.False(t, roles.IsAdmin())
	})

	t.Run("Admin can do both", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"roles": []string{"ADMIN"}})
		roles := RolesFromToken(token)

		assert.True(t, roles.CanModerate())
		assert.True(t, roles.IsAdmin())
	})

	t.Run("Undecodable token yields empty set", func(t *testing.T) {
		assert.Empty(t, RolesFromToken("not-a-jwt"))
		assert.Empty(t, RolesFromToken("a.b"))
		assert.Empty(t, RolesFromToken("%%%.%%%.%%%"))
	})

	t.Run("Empty token yields empty set", func(t *testing.T) {
		roles := RolesFromToken("")
		assert.Empty(t, roles)
		assert.False(t, roles.CanModerate())
	})

	t.Run("Missing roles claim yields empty set", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"sub": "user-1"})
		assert.Empty(t, RolesFromToken(token))
	})

	t.Run("Non-string entries are ignored", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"roles": []interface{}{"ADMIN", 42, ""}})
		roles := RolesFromToken(token)
		assert.Len(t, roles, 1)
		assert.True(t, roles.IsAdmin())
	})
}

func TestSessionFromToken(t *testing.T) {
	t.Run("Should recover identity from standard claims", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"sub": "user-1", "email": "ana@example.com"})
		session := SessionFromToken(token)

		require.NotNil(t, session)
		assert.Equal(t, token, session.AccessToken)
		assert.Equal(t, "user-1", session.User.ID)
		assert.Equal(t, "ana@example.com", session.User.Email)
	})

	t.Run("Should tolerate missing identity claims", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"roles": []string{"ADMIN"}})
		session := SessionFromToken(token)

		require.NotNil(t, session)
		assert.Empty(t, session.User.ID)
		assert.Empty(t, session.User.Email)
	})

	t.Run("Empty or undecodable token yields nil", func(t *testing.T) {
		assert.Nil(t, SessionFromToken(""))
		assert.Nil(t, SessionFromToken("not-a-jwt"))
	})
}

func TestRolesFromSession(t *testing.T) {
	t.Run("Nil session yields empty set", func(t *testing.T) {
		assert.Empty(t, RolesFromSession(nil))
	})

	t.Run("Session token is decoded", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"roles": []string{"ADMIN"}})
		roles := RolesFromSession(&Session{AccessToken: token})
		assert.True(t, roles.IsAdmin())
	})
}
