package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"eduline/internal/broadcast"
	"eduline/internal/database"
	"eduline/internal/profile"
)

func newTestDB(t *testing.T) *database.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	d := database.NewDatabase(db)
	require.NoError(t, d.Migrate())
	return d
}

// fakeLookup resolves from a fixed map; a nil map with err set simulates a
// profile service outage.
type fakeLookup struct {
	profiles map[uuid.UUID]profile.Profile
	err      error
}

func (f *fakeLookup) Profiles(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]profile.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uuid.UUID]profile.Profile)
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func namedLookup(names map[uuid.UUID]string) *fakeLookup {
	profiles := make(map[uuid.UUID]profile.Profile, len(names))
	for id, name := range names {
		profiles[id] = profile.Profile{ID: id, DisplayName: name}
	}
	return &fakeLookup{profiles: profiles}
}

// capturePublisher records published events instead of fanning out.
type capturePublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (c *capturePublisher) Publish(ev broadcast.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *capturePublisher) all() []broadcast.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]broadcast.Event, len(c.events))
	copy(out, c.events)
	return out
}
