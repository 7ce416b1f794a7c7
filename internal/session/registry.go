// Package session tracks live gateway sessions in Redis. One key per
// (user, session) pair carries the heartbeat TTL, so expiry is handled by
// the store itself and never polled by the core.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	keyPrefix = "session:"

	// DefaultTTL is the heartbeat window. A session that misses heartbeats
	// for this long is considered gone.
	DefaultTTL = 45 * time.Second
)

type Registry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRegistry(client *redis.Client, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{client: client, ttl: ttl}
}

func sessionKey(userID, sessionID uuid.UUID) string {
	return keyPrefix + userID.String() + ":" + sessionID.String()
}

// Save registers a session. Idempotent: re-saving refreshes the TTL.
func (r *Registry) Save(ctx context.Context, userID, sessionID uuid.UUID) error {
	return r.client.Set(ctx, sessionKey(userID, sessionID), time.Now().UnixMilli(), r.ttl).Err()
}

// Heartbeat refreshes the TTL of an existing session. A heartbeat for a
// session that no longer exists is a no-op, never an error, so a stale
// heartbeat racing a disconnect cannot resurrect a removed session.
func (r *Registry) Heartbeat(ctx context.Context, userID, sessionID uuid.UUID) error {
	return r.client.Expire(ctx, sessionKey(userID, sessionID), r.ttl).Err()
}

// Sessions returns the user's currently live session ids, possibly empty.
func (r *Registry) Sessions(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	pattern := keyPrefix + userID.String() + ":*"

	var sessions []uuid.UUID
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			raw := key[strings.LastIndex(key, ":")+1:]
			if id, err := uuid.Parse(raw); err == nil {
				sessions = append(sessions, id)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return sessions, nil
}

// Remove deletes a session explicitly, distinct from passive TTL expiry.
// Removing an already-expired session is a no-op.
func (r *Registry) Remove(ctx context.Context, userID, sessionID uuid.UUID) error {
	return r.client.Del(ctx, sessionKey(userID, sessionID)).Err()
}

// IsOnline reports whether the user has at least one live session.
func (r *Registry) IsOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	sessions, err := r.Sessions(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(sessions) > 0, nil
}

// OnlineUsers reports presence for a set of users in one keyspace pass.
// SCAN with a MATCH pattern walks the whole keyspace server-side anyway, so
// one broad scan beats a per-user scan loop.
func (r *Registry) OnlineUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	online := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		online[id] = false
	}

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			rest := strings.TrimPrefix(key, keyPrefix)
			sep := strings.Index(rest, ":")
			if sep < 0 {
				continue
			}
			if id, err := uuid.Parse(rest[:sep]); err == nil {
				if _, wanted := online[id]; wanted {
					online[id] = true
				}
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return online, nil
}
