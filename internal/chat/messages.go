package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"eduline/internal/broadcast"
	"eduline/internal/database"
	"eduline/internal/models"
	"eduline/internal/profile"
)

// MaxMessageLength bounds message content, measured in runes.
const MaxMessageLength = 4000

type MessageView struct {
	ID             uuid.UUID       `json:"id"`
	ConversationID uuid.UUID       `json:"conversation_id"`
	SenderID       uuid.UUID       `json:"sender_id"`
	Content        string          `json:"content"`
	CreatedAt      time.Time       `json:"created_at"`
	Sender         profile.Profile `json:"sender"`
}

// MessageQuery mirrors the two retrieval modes of the store: offset paging
// or a strictly-before cursor. Cursor wins when Before is set.
type MessageQuery struct {
	Page      int
	PageSize  int
	Ascending bool
	Before    time.Time
}

// Messages is the append-only message log service. A message is broadcast
// only after it has been persisted; the two steps share no transaction and
// fail independently.
type Messages struct {
	db       *database.Database
	profiles profile.Lookup
	events   broadcast.Publisher
}

func NewMessages(db *database.Database, profiles profile.Lookup, events broadcast.Publisher) *Messages {
	return &Messages{db: db, profiles: profiles, events: events}
}

// Create validates, persists and then publishes a message. Validation
// failures happen before any write.
func (m *Messages) Create(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*MessageView, error) {
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	conv, err := m.db.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}

	if err := m.db.SaveMessage(message); err != nil {
		return nil, err
	}

	if err := m.db.TouchConversation(conversationID); err != nil {
		log.Printf("failed to bump conversation %s recency: %v", conversationID, err)
	}

	view := m.enrich(ctx, message)

	if payload, err := json.Marshal(view); err == nil {
		m.events.Publish(broadcast.Event{
			MessageID:      message.ID,
			ConversationID: conversationID,
			SenderID:       senderID,
			Participants:   conv.ParticipantIDs(),
			CreatedAt:      message.CreatedAt,
			Payload:        payload,
		})
	} else {
		log.Printf("failed to marshal message %s for broadcast: %v", message.ID, err)
	}

	return view, nil
}

// List retrieves messages for a participant in one of the two modes.
func (m *Messages) List(ctx context.Context, conversationID, userID uuid.UUID, q MessageQuery) ([]MessageView, error) {
	isParticipant, err := m.db.IsParticipant(conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !isParticipant {
		if _, err := m.db.GetConversation(conversationID); errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, ErrNotParticipant
	}

	if q.PageSize <= 0 || q.PageSize > MaxPageSize {
		q.PageSize = DefaultPageSize
	}

	messages, err := m.db.GetConversationMessages(conversationID, database.MessageQuery{
		Page:      q.Page,
		PageSize:  q.PageSize,
		Ascending: q.Ascending,
		Before:    q.Before,
	})
	if err != nil {
		return nil, err
	}

	senderIDs := make([]uuid.UUID, 0, len(messages))
	seen := make(map[uuid.UUID]struct{})
	for i := range messages {
		if _, ok := seen[messages[i].SenderID]; !ok {
			seen[messages[i].SenderID] = struct{}{}
			senderIDs = append(senderIDs, messages[i].SenderID)
		}
	}
	profiles := m.resolveProfiles(ctx, senderIDs)

	views := make([]MessageView, len(messages))
	for i := range messages {
		views[i] = MessageView{
			ID:             messages[i].ID,
			ConversationID: messages[i].ConversationID,
			SenderID:       messages[i].SenderID,
			Content:        messages[i].Content,
			CreatedAt:      messages[i].CreatedAt,
			Sender:         profiles[messages[i].SenderID],
		}
	}
	return views, nil
}

func (m *Messages) enrich(ctx context.Context, message *models.Message) *MessageView {
	profiles := m.resolveProfiles(ctx, []uuid.UUID{message.SenderID})
	return &MessageView{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt,
		Sender:         profiles[message.SenderID],
	}
}

func (m *Messages) resolveProfiles(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]profile.Profile {
	resolved, err := m.profiles.Profiles(ctx, ids)
	if err != nil {
		log.Printf("profile lookup failed, using placeholders: %v", err)
		resolved = map[uuid.UUID]profile.Profile{}
	}
	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			resolved[id] = profile.Profile{ID: id, DisplayName: shortID(id)}
		}
	}
	return resolved
}
