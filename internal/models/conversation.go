package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Conversation struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Type string    `gorm:"not null;check:type IN ('direct','group')"`

	// Unique only for direct rows: the index is what makes concurrent
	// direct creates collapse onto one conversation. Groups may repeat a
	// participant set freely.
	Fingerprint string `gorm:"not null;index:idx_direct_fingerprint,unique,where:type = 'direct'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Participants []Participant `gorm:"foreignKey:ConversationID"`
	Messages     []Message     `gorm:"foreignKey:ConversationID"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ParticipantIDs returns the user ids of all participants.
func (c *Conversation) ParticipantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Participants))
	for i, p := range c.Participants {
		ids[i] = p.UserID
	}
	return ids
}

// HasParticipant reports whether the user belongs to the conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
