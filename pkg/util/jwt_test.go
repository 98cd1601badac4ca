package util

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	now := time.Now()
	token, err := GenerateJWT("a@b.com", "secret", 90*24*time.Hour, now)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.WithinDuration(t, now.Add(90*24*time.Hour), claims.ExpiresAt.Time, time.Second)
}

func TestParseJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateJWT("a@b.com", "secret", time.Hour, time.Now())
	require.NoError(t, err)
	_, err = ParseJWT(token, "other")
	assert.Error(t, err)

	expired, err := GenerateJWT("a@b.com", "secret", time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = ParseJWT(token+"x", "secret")
	assert.Error(t, err)
}

func TestParseJWTRejectsOtherAlgorithms(t *testing.T) {
	claims := SessionClaims{Email: "a@b.com", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, ExtractToken(r))

	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", ExtractToken(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, ExtractToken(r))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("test123")
	require.NoError(t, err)
	assert.True(t, CheckPassword("test123", hash))
	assert.False(t, CheckPassword("wrong", hash))
}
