package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/ailp/internal/logger"
	"github.com/abhisek/ailp/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s, err := store.Open(context.Background(), "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewService(s.Users(), NewSQLSessionStore(s.Sessions()), 0, logger.Nop()), s
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "battery staple"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))
}

func TestSignupLoginResolveLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, sess, err := svc.Signup(ctx, "  Ada@Example.COM ", "password123", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEmpty(t, sess.Token)
	assert.WithinDuration(t, time.Now().Add(DefaultSessionTTL), sess.ExpiresAt, time.Minute)

	got, err := svc.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, login, err := svc.Login(ctx, "ADA@example.com", "password123")
	require.NoError(t, err)
	assert.NotEqual(t, sess.Token, login.Token)

	require.NoError(t, svc.Logout(ctx, login.Token))
	_, err = svc.Resolve(ctx, login.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	// The first session is unaffected.
	_, err = svc.Resolve(ctx, sess.Token)
	assert.NoError(t, err)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"bad email", "not-an-email", "password123", ErrInvalidEmail},
		{"short password", "b@example.com", "short", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Signup(ctx, tt.email, tt.password, "")
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, _, err := svc.Signup(ctx, "dup@example.com", "password123", "")
	require.NoError(t, err)
	_, _, err = svc.Signup(ctx, "DUP@example.com", "password123", "")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, _, err := svc.Signup(ctx, "c@example.com", "password123", "")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "c@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolveExpiredSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, sess, err := svc.Signup(ctx, "e@example.com", "password123", "")
	require.NoError(t, err)

	sqlSessions := svc.sessions.(*SQLSessionStore)
	sqlSessions.now = func() time.Time { return time.Now().Add(DefaultSessionTTL + time.Hour) }

	_, err = svc.Resolve(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestGuestID(t *testing.T) {
	id := GuestID()
	assert.True(t, strings.HasPrefix(id, "guest-"))
	assert.True(t, IsGuest(id))
	assert.NotEqual(t, id, GuestID())
	assert.False(t, IsGuest(uuid.NewString()))
}
