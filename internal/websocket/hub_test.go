package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID uuid.UUID) *Client {
	return NewClient(hub, nil, userID)
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case payload, ok := <-c.Send:
			if !ok {
				return out
			}
			out = append(out, payload)
		default:
			return out
		}
	}
}

func TestHub_RegisterMultiDevice(t *testing.T) {
	hub := NewHub()
	user := uuid.New()

	phone := newTestClient(hub, user)
	laptop := newTestClient(hub, user)

	hub.registerClient(phone)
	hub.registerClient(laptop)

	assert.Len(t, hub.userClients[user], 2)

	hub.unregisterClient(phone)
	assert.Len(t, hub.userClients[user], 1)

	hub.unregisterClient(laptop)
	assert.NotContains(t, hub.userClients, user)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, uuid.New())

	hub.registerClient(client)
	hub.unregisterClient(client)
	// A second unregister must not double-close the send channel.
	hub.unregisterClient(client)
}

func TestHub_JoinLeaveRoom(t *testing.T) {
	hub := NewHub()
	conv := uuid.New()
	client := newTestClient(hub, uuid.New())
	hub.registerClient(client)

	hub.JoinRoom(client, conv)
	assert.True(t, client.IsInRoom(conv))
	assert.Contains(t, hub.rooms, RoomKey(conv))

	hub.LeaveRoom(client, conv)
	assert.False(t, client.IsInRoom(conv))
	// Empty rooms are dropped.
	assert.NotContains(t, hub.rooms, RoomKey(conv))
}

func TestHub_SendToRoomReachesJoinedOnly(t *testing.T) {
	hub := NewHub()
	conv := uuid.New()

	joined := newTestClient(hub, uuid.New())
	outside := newTestClient(hub, uuid.New())
	hub.registerClient(joined)
	hub.registerClient(outside)
	drain(joined)
	drain(outside)

	hub.JoinRoom(joined, conv)

	hub.SendToRoom(conv, []byte("payload"))

	require.Len(t, drain(joined), 1)
	assert.Empty(t, drain(outside))
}

func TestHub_SendToRoomReachesAllDevices(t *testing.T) {
	hub := NewHub()
	conv := uuid.New()
	user := uuid.New()

	phone := newTestClient(hub, user)
	laptop := newTestClient(hub, user)
	hub.registerClient(phone)
	hub.registerClient(laptop)
	drain(phone)
	drain(laptop)

	hub.JoinRoom(phone, conv)
	hub.JoinRoom(laptop, conv)

	hub.SendToRoom(conv, []byte("payload"))

	assert.Len(t, drain(phone), 1)
	assert.Len(t, drain(laptop), 1)
}

func TestHub_UnregisterLeavesRooms(t *testing.T) {
	hub := NewHub()
	conv := uuid.New()

	leaving := newTestClient(hub, uuid.New())
	staying := newTestClient(hub, uuid.New())
	hub.registerClient(leaving)
	hub.registerClient(staying)
	drain(staying)

	hub.JoinRoom(leaving, conv)
	hub.JoinRoom(staying, conv)

	hub.unregisterClient(leaving)

	hub.SendToRoom(conv, []byte("payload"))

	payloads := drain(staying)
	// One user-offline notice plus the room payload.
	require.Len(t, payloads, 2)
}

func TestHub_UserStatusNotifications(t *testing.T) {
	hub := NewHub()

	watcher := newTestClient(hub, uuid.New())
	hub.registerClient(watcher)
	drain(watcher)

	user := uuid.New()
	phone := newTestClient(hub, user)
	laptop := newTestClient(hub, user)

	hub.registerClient(phone)
	payloads := drain(watcher)
	require.Len(t, payloads, 1)

	var msg Message
	require.NoError(t, json.Unmarshal(payloads[0], &msg))
	assert.Equal(t, EventUserOnline, msg.Type)

	// Second device: no duplicate online notice.
	hub.registerClient(laptop)
	assert.Empty(t, drain(watcher))

	// Offline only when the last device disconnects.
	hub.unregisterClient(phone)
	assert.Empty(t, drain(watcher))

	hub.unregisterClient(laptop)
	payloads = drain(watcher)
	require.Len(t, payloads, 1)
	require.NoError(t, json.Unmarshal(payloads[0], &msg))
	assert.Equal(t, EventUserOffline, msg.Type)
}

func TestHub_StopReleasesClients(t *testing.T) {
	hub := NewHub()

	client := newTestClient(hub, uuid.New())
	hub.registerClient(client)

	hub.Stop()

	assert.Empty(t, hub.clients)
	assert.Empty(t, hub.userClients)

	// Send channel closed exactly once, even if unregister runs again.
	drain(client)
	_, open := <-client.Send
	assert.False(t, open)
	hub.unregisterClient(client)

	// Register and Unregister must not block once the hub has stopped.
	done := make(chan struct{})
	go func() {
		hub.Register(newTestClient(hub, uuid.New()))
		hub.Unregister(client)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub channel send blocked after Stop")
	}
}

func TestRoomKey(t *testing.T) {
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	assert.Equal(t, "conversation:11111111-1111-1111-1111-111111111111", RoomKey(id))
}
