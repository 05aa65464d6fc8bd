package store

import (
	"testing"

	"github.com/shelfdesk/shelfdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.GetSession()
	assert.False(t, ok, "fresh store holds no session")

	sess := domain.Session{
		AccessToken:  "tok",
		RefreshToken: "refresh",
		User:         domain.User{ID: 1, Username: "admin", Role: "Admin"},
	}
	require.NoError(t, s.SaveSession(sess))

	got, ok := s.GetSession()
	require.True(t, ok)
	assert.Equal(t, sess, got)

	s.ClearSession()
	_, ok = s.GetSession()
	assert.False(t, ok)
}

func TestSessionWithoutTokenIsAbsent(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	// A lone user snapshot does not make a session.
	require.NoError(t, s.SaveUser(domain.User{Username: "admin"}))
	_, ok := s.GetSession()
	assert.False(t, ok)
}

func TestFlagRoundTrip(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.GetFlag("useLocalStorage")
	assert.False(t, ok, "unset flag reports absent")

	require.NoError(t, s.SetFlag("useLocalStorage", true))
	v, ok := s.GetFlag("useLocalStorage")
	assert.True(t, ok)
	assert.True(t, v)

	require.NoError(t, s.SetFlag("useLocalStorage", false))
	v, ok = s.GetFlag("useLocalStorage")
	assert.True(t, ok)
	assert.False(t, v)
}

func TestSequencePersists(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveSequence("books", 7))
	require.NoError(t, s.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, 7, s2.GetSequence("books"))
}
