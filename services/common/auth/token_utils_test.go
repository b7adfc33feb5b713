package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("  ", time.Hour)
	assert.ErrorIs(t, err, ErrSecretNotConfigured)
}

func TestIssueAndParse(t *testing.T) {
	m, err := NewTokenManager("test-secret", 7*24*time.Hour)
	require.NoError(t, err)

	token, exp, err := m.Issue(42, "budi@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), exp, 5*time.Second)

	claims, err := m.ParseAndValidateToken(token, TokenTypeSession)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "budi@example.com", claims.Email)
	assert.Equal(t, TokenTypeSession, claims.Type)
}

func TestIssue_SameSecondTokensDiffer(t *testing.T) {
	m, _ := NewTokenManager("test-secret", time.Hour)
	fixed := time.Now().Truncate(time.Second)
	m.now = func() time.Time { return fixed }

	first, _, err := m.Issue(7, "a@b.c")
	require.NoError(t, err)
	m.now = func() time.Time { return fixed.Add(500 * time.Millisecond) }
	second, _, err := m.Issue(7, "a@b.c")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	for _, token := range []string{first, second} {
		claims, err := m.ParseAndValidateToken(token, TokenTypeSession)
		require.NoError(t, err)
		assert.Equal(t, int64(7), claims.UserID)
	}
}

func TestParse_RejectsExpired(t *testing.T) {
	m, _ := NewTokenManager("test-secret", time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.Issue(1, "a@b.c")
	require.NoError(t, err)

	_, err = m.ParseAndValidateToken(token, TokenTypeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsWrongTypeAndSecret(t *testing.T) {
	m, _ := NewTokenManager("test-secret", time.Hour)
	other, _ := NewTokenManager("other-secret", time.Hour)

	token, _, _ := other.Issue(1, "a@b.c")
	_, err := m.ParseAndValidateToken(token, TokenTypeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": 1, "typ": "refresh", "exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := refresh.SignedString([]byte("test-secret"))
	_, err = m.ParseAndValidateToken(signed, TokenTypeSession)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc.def", BearerToken("Bearer abc.def"))
	assert.Equal(t, "abc.def", BearerToken("bearer abc.def"))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("Bearer "))
	assert.Equal(t, "", BearerToken(""))
}
