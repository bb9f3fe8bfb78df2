package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestJWTVerifier_RoundTrip(t *testing.T) {
	token, err := GenerateToken(testSecret, "u1", "staff", time.Hour)
	require.NoError(t, err)

	claims, err := NewJWTVerifier(testSecret).Verify(token)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, "staff", claims.Role)
}

func TestJWTVerifier_ExpiredToken(t *testing.T) {
	token, err := GenerateToken(testSecret, "u1", "donor", -time.Minute)
	require.NoError(t, err)

	_, err = NewJWTVerifier(testSecret).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_WrongSecret(t *testing.T) {
	token, err := GenerateToken("other-secret", "u1", "donor", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTVerifier(testSecret).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_MissingUserID(t *testing.T) {
	token, err := GenerateToken(testSecret, "", "donor", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTVerifier(testSecret).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifier_Garbage(t *testing.T) {
	_, err := NewJWTVerifier(testSecret).Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
