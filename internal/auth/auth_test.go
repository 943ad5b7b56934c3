package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestAuth() *Auth {
	return New(Config{
		HostUsername: "host",
		HostPassword: "wavelength",
		Secret:       "test-secret-0123456789-0123456789",
		TokenTTL:     time.Hour,
	})
}

func TestAuthenticateAndVerifyRoundTrip(t *testing.T) {
	a := newTestAuth()

	token, err := a.Authenticate("host", "wavelength", "192.0.2.1:9999")
	require.NoError(t, err)

	claims, err := a.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "host", claims.Sub)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	a := newTestAuth()

	_, err := a.Authenticate("host", "wrong", "192.0.2.2:9999")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate("intruder", "wavelength", "192.0.2.2:9999")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	a := newTestAuth()
	token, err := a.Issue("host")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + parts[2][:len(parts[2])-2] + "xx"

	_, err = a.Verify(tampered)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRepeatedFailuresRateLimit(t *testing.T) {
	a := New(Config{
		HostUsername:       "host",
		HostPassword:       "wavelength",
		Secret:             "test-secret-0123456789-0123456789",
		MaxLoginAttempts:   3,
		LoginWindowSeconds: 60,
	})

	addr := "198.51.100.7:1234"
	for i := 0; i < 3; i++ {
		_, err := a.Authenticate("host", "wrong", addr)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := a.Authenticate("host", "wavelength", addr)
	require.ErrorIs(t, err, ErrRateLimited)
	require.True(t, a.IsRateLimited(addr))
	require.Greater(t, a.RemainingLockout(addr), time.Duration(0))
}
