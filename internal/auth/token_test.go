package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	raw, err := issuer.Issue(Claims{ID: "abcde12345", PhoneNumber: "+12345678901"})
	require.NoError(t, err)
	assert.Len(t, strings.Split(raw, "."), 3)

	claims, err := issuer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "abcde12345", claims.ID)
	assert.Equal(t, "+12345678901", claims.PhoneNumber)
}

func TestTokenExpired(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Minute)
	require.NoError(t, err)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	raw, err := issuer.Issue(Claims{ID: "abcde12345"})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(raw)
	assert.Error(t, err)
}

func TestTokenWrongKey(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer(strings.Repeat("x", 32), time.Hour)
	require.NoError(t, err)

	raw, err := other.Issue(Claims{ID: "abcde12345"})
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	_, err = issuer.Verify("not-a-token")
	assert.Error(t, err)
}
