package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"eduline/internal/chat"
	"eduline/internal/database"
	"eduline/internal/handlers/dto"
	"eduline/internal/session"
	"eduline/internal/websocket"
)

// firstPageSize bounds the conversation fetch performed on connect.
const firstPageSize = 50

// Gateway binds connection lifecycle events to the session registry, room
// membership and the message store. One Gateway serves every connection;
// all methods are safe for concurrent use.
type Gateway struct {
	hub      *websocket.Hub
	sessions *session.Registry
	db       *database.Database
	messages *chat.Messages
}

func NewGateway(hub *websocket.Hub, sessions *session.Registry, db *database.Database, messages *chat.Messages) *Gateway {
	return &Gateway{hub: hub, sessions: sessions, db: db, messages: messages}
}

// OnConnect registers the session and joins the connection to a room per
// conversation the user participates in (first page, bounded). A failed
// conversation fetch leaves the connection up in degraded mode: the client
// can still join rooms explicitly.
func (g *Gateway) OnConnect(ctx context.Context, client *websocket.Client) {
	if err := g.sessions.Save(ctx, client.UserID, client.ID); err != nil {
		log.Printf("failed to save session %s for user %s: %v", client.ID, client.UserID, err)
	}

	conversationIDs, err := g.db.GetUserConversationIDs(client.UserID, firstPageSize)
	if err != nil {
		log.Printf("degraded connect for user %s, conversation fetch failed: %v", client.UserID, err)
		return
	}

	for _, conversationID := range conversationIDs {
		g.hub.JoinRoom(client, conversationID)
	}
}

// HandleHeartbeat refreshes the session TTL. A heartbeat for an expired or
// removed session is silently ignored.
func (g *Gateway) HandleHeartbeat(client *websocket.Client) {
	if err := g.sessions.Heartbeat(context.Background(), client.UserID, client.ID); err != nil {
		log.Printf("heartbeat failed for session %s: %v", client.ID, err)
	}
}

// HandleJoinRoom joins the connection to a conversation room, but only when
// the user actually participates in that conversation.
func (g *Gateway) HandleJoinRoom(client *websocket.Client, conversationID uuid.UUID) error {
	isParticipant, err := g.db.IsParticipant(conversationID, client.UserID)
	if err != nil {
		return err
	}
	if !isParticipant {
		return chat.ErrNotParticipant
	}

	g.hub.JoinRoom(client, conversationID)
	return nil
}

func (g *Gateway) HandleLeaveRoom(client *websocket.Client, conversationID uuid.UUID) {
	g.hub.LeaveRoom(client, conversationID)
}

// HandleDisconnect removes the session explicitly. TTL expiry covers the
// case where this never runs.
func (g *Gateway) HandleDisconnect(client *websocket.Client) {
	if err := g.sessions.Remove(context.Background(), client.UserID, client.ID); err != nil {
		log.Printf("failed to remove session %s: %v", client.ID, err)
	}
}

// HandleMessage routes an inbound MESSAGE event through the same
// persist-then-broadcast path as the REST surface.
func (g *Gateway) HandleMessage(client *websocket.Client, msg *websocket.Message) error {
	if msg.ConversationID == nil {
		return websocket.ErrInvalidMessage
	}

	var payload dto.MessagePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return err
	}
	if payload.Content == "" {
		return websocket.ErrInvalidMessage
	}

	_, err := g.messages.Create(context.Background(), *msg.ConversationID, client.UserID, payload.Content)
	return err
}
