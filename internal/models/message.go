package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is append-only: rows are never updated or deleted once written.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_conv_created,priority:1"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null"`
	Content        string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conv_created,priority:2"`

	Conversation Conversation `gorm:"foreignKey:ConversationID"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
