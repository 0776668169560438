package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("secret", "classpulse", time.Hour, Claims{
		UserID: "u-1",
		Name:   "Ada",
		Role:   "teacher",
	})
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.UserID)
	require.Equal(t, "Ada", claims.Name)
	require.Equal(t, "teacher", claims.Role)
	require.Equal(t, "classpulse", claims.Issuer)
	require.Equal(t, "u-1", claims.Subject)
}

func TestParseToken(t *testing.T) {
	t.Run("empty token", func(t *testing.T) {
		_, err := ParseToken("secret", "")
		require.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewAccessToken("secret", "classpulse", time.Hour, Claims{UserID: "u-1"})
		require.NoError(t, err)

		_, err = ParseToken("other", token)
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := NewAccessToken("secret", "classpulse", -time.Minute, Claims{UserID: "u-1"})
		require.NoError(t, err)

		_, err = ParseToken("secret", token)
		require.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseToken("secret", "not.a.token")
		require.Error(t, err)
	})
}
