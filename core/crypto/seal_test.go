package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealRoundTrip(t *testing.T) {
	s, err := NewSealer("some-secret")
	require.NoError(t, err)

	sealed, err := s.Seal("ya29.access-token")
	require.NoError(t, err)
	assert.NotEqual(t, "ya29.access-token", sealed)

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access-token", opened)
}

func TestSealProducesFreshNonce(t *testing.T) {
	s, err := NewSealer("some-secret")
	require.NoError(t, err)

	a, err := s.Seal("same plaintext")
	require.NoError(t, err)
	b, err := s.Seal("same plaintext")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsTamperedValue(t *testing.T) {
	s, err := NewSealer("some-secret")
	require.NoError(t, err)

	sealed, err := s.Seal("ya29.access-token")
	require.NoError(t, err)

	// Flip one character of the base64 payload.
	tampered := []byte(sealed)
	if tampered[10] == 'A' {
		tampered[10] = 'B'
	} else {
		tampered[10] = 'A'
	}
	_, err = s.Open(string(tampered))
	assert.Error(t, err)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	a, err := NewSealer("key-a")
	require.NoError(t, err)
	b, err := NewSealer("key-b")
	require.NoError(t, err)

	sealed, err := a.Seal("ya29.access-token")
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.Error(t, err)
}

func TestNewSealerRejectsEmptyKey(t *testing.T) {
	_, err := NewSealer("")
	assert.Error(t, err)
}

func TestOpenRejectsGarbage(t *testing.T) {
	s, err := NewSealer("some-secret")
	require.NoError(t, err)

	_, err = s.Open("not base64 at all!!!")
	assert.Error(t, err)

	_, err = s.Open("c2hvcnQ=")
	assert.Error(t, err, "too short to hold a nonce")
}
