package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnauthenticated(t *testing.T) {
	s := Unauthenticated()
	assert.False(t, s.IsAuthenticated())
	assert.ErrorIs(t, s.Require(), ErrUnauthenticated)
	assert.Equal(t, "anonymous", s.Actor())
}

func TestLoginLogoutResolve(t *testing.T) {
	ctx := context.Background()
	a := NewAuthenticator("admin", "admin", nil)

	s, err := a.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.NoError(t, s.Require())
	assert.Len(t, s.ID, 36)

	got, err := a.Resolve(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	require.NoError(t, a.Logout(ctx, s.ID))
	got, err = a.Resolve(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAuthenticated())

	assert.NoError(t, a.Logout(ctx, s.ID))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a := NewAuthenticator("admin", "admin", nil)
	for _, c := range [][2]string{{"admin", "wrong"}, {"root", "admin"}, {"", ""}} {
		s, err := a.Login(context.Background(), c[0], c[1])
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.False(t, s.IsAuthenticated())
	}
}

func TestSessionsAreDistinct(t *testing.T) {
	a := NewAuthenticator("admin", "admin", nil)
	s1, _ := a.Login(context.Background(), "admin", "admin")
	s2, _ := a.Login(context.Background(), "admin", "admin")
	assert.NotEqual(t, s1.ID, s2.ID)
}

func TestResolveEmptyID(t *testing.T) {
	a := NewAuthenticator("admin", "admin", nil)
	s, err := a.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, s.IsAuthenticated())
}

type failingStore struct{ MemoryStore }

func (*failingStore) SaveSession(context.Context, Session) error { return errors.New("disk full") }

func TestLoginSurfacesStoreError(t *testing.T) {
	a := NewAuthenticator("admin", "admin", &failingStore{})
	_, err := a.Login(context.Background(), "admin", "admin")
	assert.ErrorContains(t, err, "disk full")
}
