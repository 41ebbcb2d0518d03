package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, "authmodule-api", 24)

	token, claims, err := tm.GenerateToken("user-1", "a@b.com", "Ann")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, claims.ID)

	parsed, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.UserID)
	assert.Equal(t, "user-1", parsed.Subject)
	assert.Equal(t, "a@b.com", parsed.Email)
	assert.Equal(t, "Ann", parsed.Name)
	assert.Equal(t, claims.ID, parsed.ID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), parsed.ExpiresAt.Time, time.Minute)
}

func TestTokenManager_TokensAreUnique(t *testing.T) {
	tm := NewTokenManager(testSecret, "authmodule-api", 1)

	first, _, err := tm.GenerateToken("user-1", "a@b.com", "")
	require.NoError(t, err)
	second, _, err := tm.GenerateToken("user-1", "a@b.com", "")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, _, err := NewTokenManager(testSecret, "authmodule-api", 1).GenerateToken("user-1", "a@b.com", "")
	require.NoError(t, err)

	_, err = NewTokenManager("another-secret-another-secret-xx", "authmodule-api", 1).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongIssuer(t *testing.T) {
	token, _, err := NewTokenManager(testSecret, "someone-else", 1).GenerateToken("user-1", "a@b.com", "")
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, "authmodule-api", 1).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, "authmodule-api", 1)
	past := time.Now().Add(-2 * time.Hour)

	claims := SessionClaims{
		UserID: "user-1",
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    "authmodule-api",
			IssuedAt:  gojwt.NewNumericDate(past),
			ExpiresAt: gojwt.NewNumericDate(past.Add(time.Hour)),
		},
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenManager_Garbage(t *testing.T) {
	tm := NewTokenManager(testSecret, "authmodule-api", 1)
	_, err := tm.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_MissingUserID(t *testing.T) {
	tm := NewTokenManager(testSecret, "authmodule-api", 1)
	token, _, err := tm.GenerateToken("", "a@b.com", "")
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaim)
}
