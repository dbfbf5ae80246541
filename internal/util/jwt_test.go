package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateJWT(t *testing.T) {
	tokenString := signToken(t, &Claims{
		Email: "u1@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)

	claims, err := ValidateJWT(tokenString, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "u1@example.com", claims.Email)
}

func TestValidateJWTWrongSecret(t *testing.T) {
	tokenString := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}, "other-secret")

	_, err := ValidateJWT(tokenString, testSecret)
	assert.Error(t, err)
}

func TestValidateJWTExpired(t *testing.T) {
	tokenString := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}, testSecret)

	_, err := ValidateJWT(tokenString, testSecret)
	assert.Error(t, err)
}

func TestValidateJWTMissingSubject(t *testing.T) {
	tokenString := signToken(t, &Claims{Email: "u1@example.com"}, testSecret)

	_, err := ValidateJWT(tokenString, testSecret)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subject")
}

func TestValidateJWTGarbage(t *testing.T) {
	_, err := ValidateJWT("not.a.token", testSecret)
	assert.Error(t, err)
}
