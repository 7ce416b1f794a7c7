package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"eduline/internal/models"
)

func (d *Database) CreateConversation(conv *models.Conversation) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(conv).Error
	})
}

func (d *Database) GetConversation(id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	if err := d.db.Preload("Participants").First(&conv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindDirectByFingerprint looks up an existing direct conversation with the
// given participant fingerprint. Returns gorm.ErrRecordNotFound when absent.
func (d *Database) FindDirectByFingerprint(fingerprint string) (*models.Conversation, error) {
	var conv models.Conversation
	err := d.db.
		Preload("Participants").
		Where("type = 'direct' AND fingerprint = ?", fingerprint).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetUserConversations lists the user's conversations ordered by recency.
func (d *Database) GetUserConversations(userID uuid.UUID, offset, limit int) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := d.db.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Order("conversations.updated_at DESC").
		Offset(offset).
		Limit(limit).
		Preload("Participants").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// GetUserConversationIDs returns ids only, for room joining on connect.
func (d *Database) GetUserConversationIDs(userID uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.db.
		Model(&models.Conversation{}).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Order("conversations.updated_at DESC").
		Limit(limit).
		Pluck("conversations.id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (d *Database) IsParticipant(conversationID, userID uuid.UUID) (bool, error) {
	var count int64
	err := d.db.
		Model(&models.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// TouchConversation bumps updated_at so recency ordering follows the latest message.
func (d *Database) TouchConversation(id uuid.UUID) error {
	return d.db.
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}
