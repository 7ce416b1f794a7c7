package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType names the events exchanged with gateway clients.
type EventType string

const (
	// Client -> gateway
	EventHeartbeat EventType = "HEARTBEAT"
	EventJoinRoom  EventType = "JOIN_ROOM"
	EventLeaveRoom EventType = "LEAVE_ROOM"
	EventMessage   EventType = "MESSAGE"

	// Gateway -> client
	EventError       EventType = "ERROR"
	EventUserOnline  EventType = "USER_ONLINE"
	EventUserOffline EventType = "USER_OFFLINE"
)

type Message struct {
	Type           EventType       `json:"type"`
	ConversationID *uuid.UUID      `json:"conversation_id,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// RoomKey is the stable addressing key shared by joins and broadcasts.
func RoomKey(conversationID uuid.UUID) string {
	return "conversation:" + conversationID.String()
}

// Hub tracks live gateway connections, their owners and their room
// memberships. Room membership is transient and connection-scoped; it is
// rebuilt from the conversation directory on every connect.
type Hub struct {
	clients map[uuid.UUID]*Client

	// One user may hold several connections (multi-device).
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Room key -> connections joined to it.
	rooms map[string]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:       make(map[string]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

// Stop shuts the hub down, releasing every connection through the same
// unregister path a disconnect takes, so send channels are closed exactly
// once.
func (h *Hub) Stop() {
	h.cancel()

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.unregisterClient(client)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
		h.notifyUserStatus(client.UserID, EventUserOnline)
	}
	h.userClients[client.UserID][client.ID] = client

	log.Printf("Client registered: %s (User: %s)", client.ID, client.UserID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	for roomKey := range client.roomKeys() {
		h.removeFromRoomUnsafe(client, roomKey)
	}

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
			h.notifyUserStatus(client.UserID, EventUserOffline)
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)

	log.Printf("Client unregistered: %s (User: %s)", client.ID, client.UserID)
}

// JoinRoom adds the connection to the conversation's room, creating the
// room on first join. Idempotent per connection.
func (h *Hub) JoinRoom(client *Client, conversationID uuid.UUID) {
	key := RoomKey(conversationID)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[key]; !ok {
		h.rooms[key] = make(map[uuid.UUID]*Client)
	}
	h.rooms[key][client.ID] = client

	client.mu.Lock()
	client.Rooms[key] = true
	client.mu.Unlock()
}

func (h *Hub) LeaveRoom(client *Client, conversationID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, RoomKey(conversationID))
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomKey string) {
	room, ok := h.rooms[roomKey]
	if !ok {
		return
	}

	delete(room, client.ID)
	client.mu.Lock()
	delete(client.Rooms, roomKey)
	client.mu.Unlock()

	if len(room) == 0 {
		delete(h.rooms, roomKey)
	}
}

// SendToRoom pushes payload to every connection joined to the conversation's
// room. A connection with a full send queue is skipped, not waited on.
func (h *Hub) SendToRoom(conversationID uuid.UUID, payload []byte) {
	key := RoomKey(conversationID)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[key] {
		select {
		case client.Send <- payload:
		default:
			log.Printf("Client %s send channel full", client.ID)
		}
	}
}

// RoomUsers returns the distinct user ids currently joined to the room.
func (h *Hub) RoomUsers(conversationID uuid.UUID) []uuid.UUID {
	key := RoomKey(conversationID)

	h.mu.RLock()
	defer h.mu.RUnlock()

	userMap := make(map[uuid.UUID]bool)
	for _, client := range h.rooms[key] {
		userMap[client.UserID] = true
	}

	users := make([]uuid.UUID, 0, len(userMap))
	for userID := range userMap {
		users = append(users, userID)
	}
	return users
}

// notifyUserStatus announces a user's first connect / last disconnect to all
// connected clients. Caller holds h.mu.
func (h *Hub) notifyUserStatus(userID uuid.UUID, status EventType) {
	data, err := json.Marshal(map[string]uuid.UUID{"user_id": userID})
	if err != nil {
		return
	}

	msg := Message{
		Type:      status,
		Data:      data,
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	for _, client := range h.clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}
