package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	Init("unit-secret", 5)
	token, err := GenerateAccessToken("u1")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, issuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseToken_Rejects(t *testing.T) {
	Init("unit-secret", 5)

	t.Run("wrong secret", func(t *testing.T) {
		Init("other-secret", 5)
		token, err := GenerateAccessToken("u1")
		require.NoError(t, err)
		Init("unit-secret", 5)
		_, err = ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		claims := Claims{UserID: "u1", RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    issuer,
			Subject:   subjectAccess,
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-secret"))
		require.NoError(t, err)
		_, err = ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("empty user", func(t *testing.T) {
		token, err := GenerateAccessToken("")
		require.NoError(t, err)
		_, err = ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidClaims)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestInit_DefaultExpiry(t *testing.T) {
	Init("unit-secret", 0)
	assert.Equal(t, defaultExpires, jwtConfig.AccessTokenExpiry)
}
