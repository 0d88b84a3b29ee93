package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken(42, secret, 30*time.Minute, time.Now())
	require.NoError(t, err)

	id, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := GenerateToken(1, secret, time.Minute, time.Now())
	require.NoError(t, err)

	expired, err := GenerateToken(1, secret, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	badSubjectToken, err := badSubject.SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret []byte
	}{
		{name: "garbage", token: "not-a-jwt", secret: secret},
		{name: "wrong secret", token: valid, secret: []byte("other")},
		{name: "expired", token: expired, secret: secret},
		{name: "alg none", token: unsigned, secret: secret},
		{name: "non numeric subject", token: badSubjectToken, secret: secret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseToken(tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Zero(t, id)
		})
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "password124"))
	assert.False(t, CheckPassword("not-a-hash", "password123"))
}
