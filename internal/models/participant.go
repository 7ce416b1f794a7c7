package models

import "github.com/google/uuid"

// Participant is a membership row. The participant set of a conversation is
// immutable after creation: there are no add/remove operations.
type Participant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (Participant) TableName() string {
	return "conversation_participants"
}
