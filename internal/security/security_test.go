package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hashed)
	assert.True(t, VerifyPassword("correct horse", hashed))
	assert.False(t, VerifyPassword("battery staple", hashed))
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	hashed, err := HashPassword(strings.Repeat("x", MaxPasswordBytes))
	require.NoError(t, err)
	assert.True(t, VerifyPassword(strings.Repeat("x", MaxPasswordBytes), hashed))
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	tok, err := m.Issue(7, "ada@example.com")
	require.NoError(t, err)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Subject)
}

func TestTokenManager_Expired(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Minute)
	require.NoError(t, err)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tok, err := m.Issue(7, "ada@example.com")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenManager_WrongSecretAndAlgorithm(t *testing.T) {
	issuer, _ := NewTokenManager("one", time.Hour)
	verifier, _ := NewTokenManager("two", time.Hour)

	tok, err := issuer.Issue(1, "a@b.c")
	require.NoError(t, err)
	_, err = verifier.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "a@b.c"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = verifier.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)
}

func TestSecretBox(t *testing.T) {
	box := NewSecretBox("app-secret")

	sealed, err := box.Seal("abcd efgh ijkl mnop")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "abcd")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "abcd efgh ijkl mnop", plain)

	_, err = NewSecretBox("other-secret").Open(sealed)
	assert.Error(t, err)

	_, err = box.Open("c2hvcnQ=")
	assert.Error(t, err)
}
