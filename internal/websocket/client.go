package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024 // 64KB
)

// SessionEvents receives the lifecycle and payload events of one connection.
// Implementations must be safe for concurrent calls from many connections.
type SessionEvents interface {
	HandleMessage(client *Client, msg *Message) error
	HandleHeartbeat(client *Client)
	HandleJoinRoom(client *Client, conversationID uuid.UUID) error
	HandleLeaveRoom(client *Client, conversationID uuid.UUID)
	HandleDisconnect(client *Client)
}

// Client is one authenticated gateway connection. Its ID doubles as the
// session id in the session registry.
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Rooms  map[string]bool
	Hub    *Hub
	mu     sync.RWMutex
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Rooms:  make(map[string]bool),
		Hub:    hub,
	}
}

// ReadPump reads client events until the connection drops, dispatching them
// to the handler. It owns the unregister + disconnect sequence.
func (c *Client) ReadPump(handler SessionEvents) {
	defer func() {
		c.Hub.Unregister(c)
		handler.HandleDisconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.Conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		switch msg.Type {
		case EventHeartbeat:
			handler.HandleHeartbeat(c)

		case EventJoinRoom:
			if msg.ConversationID == nil {
				c.SendError(ErrInvalidMessage.Error())
				continue
			}
			if err := handler.HandleJoinRoom(c, *msg.ConversationID); err != nil {
				c.SendError(err.Error())
			}

		case EventLeaveRoom:
			if msg.ConversationID == nil {
				c.SendError(ErrInvalidMessage.Error())
				continue
			}
			handler.HandleLeaveRoom(c, *msg.ConversationID)

		case EventMessage:
			if err := handler.HandleMessage(c, &msg); err != nil {
				log.Printf("Error handling message: %v", err)
				c.SendError(err.Error())
			}

		default:
			log.Printf("Unknown event type: %s", msg.Type)
		}
	}
}

// WritePump drains the send queue onto the wire and keeps the transport
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendEvent(msgType EventType, data interface{}) error {
	msg := Message{
		Type:      msgType,
		Timestamp: time.Now(),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return err
		}
		msg.Data = jsonData
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case c.Send <- msgData:
		return nil
	default:
		return ErrClientQueueFull
	}
}

func (c *Client) SendError(errorMsg string) {
	c.SendEvent(EventError, map[string]string{
		"error": errorMsg,
	})
}

func (c *Client) IsInRoom(conversationID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Rooms[RoomKey(conversationID)]
}

func (c *Client) roomKeys() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make(map[string]bool, len(c.Rooms))
	for key := range c.Rooms {
		keys[key] = true
	}
	return keys
}
