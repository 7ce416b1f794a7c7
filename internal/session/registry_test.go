package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRegistry(client, 30*time.Second), mr
}

func TestRegistry_SaveAndSessions(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	user := uuid.New()
	sess := uuid.New()

	require.NoError(t, r.Save(ctx, user, sess))

	sessions, err := r.Sessions(ctx, user)
	require.NoError(t, err)
	assert.Contains(t, sessions, sess)
}

func TestRegistry_MultiDevice(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	user := uuid.New()
	phone := uuid.New()
	laptop := uuid.New()

	require.NoError(t, r.Save(ctx, user, phone))
	require.NoError(t, r.Save(ctx, user, laptop))

	sessions, err := r.Sessions(ctx, user)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{phone, laptop}, sessions)

	// Removing one device leaves the other live.
	require.NoError(t, r.Remove(ctx, user, phone))
	sessions, err = r.Sessions(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{laptop}, sessions)
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	user := uuid.New()
	sess := uuid.New()

	require.NoError(t, r.Save(ctx, user, sess))
	require.NoError(t, r.Remove(ctx, user, sess))
	require.NoError(t, r.Remove(ctx, user, sess))

	sessions, err := r.Sessions(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRegistry_HeartbeatUnknownSessionIsNoop(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	user := uuid.New()
	unknown := uuid.New()

	assert.NoError(t, r.Heartbeat(ctx, user, unknown))

	// A stale heartbeat must not resurrect a session.
	sessions, err := r.Sessions(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRegistry_TTLExpiry(t *testing.T) {
	r, mr := newTestRegistry(t)
	ctx := context.Background()

	user := uuid.New()
	sess := uuid.New()

	require.NoError(t, r.Save(ctx, user, sess))

	mr.FastForward(31 * time.Second)

	sessions, err := r.Sessions(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	online, err := r.IsOnline(ctx, user)
	require.NoError(t, err)
	assert.False(t, online)
}

func TestRegistry_HeartbeatExtendsTTL(t *testing.T) {
	r, mr := newTestRegistry(t)
	ctx := context.Background()

	user := uuid.New()
	sess := uuid.New()

	require.NoError(t, r.Save(ctx, user, sess))

	// Heartbeat right before expiry keeps the session alive past it.
	mr.FastForward(20 * time.Second)
	require.NoError(t, r.Heartbeat(ctx, user, sess))
	mr.FastForward(20 * time.Second)

	sessions, err := r.Sessions(ctx, user)
	require.NoError(t, err)
	assert.Contains(t, sessions, sess)
}

func TestRegistry_OnlineUsersBatch(t *testing.T) {
	r, mr := newTestRegistry(t)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	require.NoError(t, r.Save(ctx, alice, uuid.New()))
	require.NoError(t, r.Save(ctx, alice, uuid.New()))
	require.NoError(t, r.Save(ctx, carol, uuid.New()))

	online, err := r.OnlineUsers(ctx, []uuid.UUID{alice, bob, carol})
	require.NoError(t, err)
	assert.True(t, online[alice])
	assert.False(t, online[bob])
	assert.True(t, online[carol])

	// Expired sessions drop out of the batch too.
	mr.FastForward(31 * time.Second)
	online, err = r.OnlineUsers(ctx, []uuid.UUID{alice, bob, carol})
	require.NoError(t, err)
	assert.False(t, online[alice])
	assert.False(t, online[carol])
}

func TestRegistry_UsersAreIsolated(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()

	require.NoError(t, r.Save(ctx, alice, uuid.New()))

	sessions, err := r.Sessions(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
