package signedurl

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	signer := NewHMACSigner("https://cdn.example.test/audio", []byte("secret"), time.Minute)

	signed, err := signer.Sign("track.mp3")
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	require.Equal(t, "/audio/track.mp3", u.Path)

	q := u.Query()
	require.NoError(t, signer.Verify("track.mp3", q.Get("expires"), q.Get("sig")))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	signer := NewHMACSigner("https://cdn.example.test", []byte("secret"), time.Minute)
	signed, err := signer.Sign("track.mp3")
	require.NoError(t, err)

	u, _ := url.Parse(signed)
	q := u.Query()
	err = signer.Verify("track.mp3", q.Get("expires"), "deadbeef")
	require.Error(t, err)
}

func TestVerifyRejectsExpiredLink(t *testing.T) {
	signer := NewHMACSigner("https://cdn.example.test", []byte("secret"), time.Minute)

	expired := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	err := signer.Verify("track.mp3", expired, "irrelevant")
	require.ErrorContains(t, err, "expired")
}
