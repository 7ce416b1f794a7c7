package database

import (
	"time"

	"github.com/google/uuid"

	"eduline/internal/models"
)

// MessageQuery selects one of two retrieval modes. When Before is non-zero
// the cursor mode wins: strictly older than Before, newest first, capped at
// PageSize. Otherwise offset paging applies with the given sort direction.
type MessageQuery struct {
	Page      int
	PageSize  int
	Ascending bool
	Before    time.Time
}

func (d *Database) SaveMessage(message *models.Message) error {
	return d.db.Create(message).Error
}

func (d *Database) GetMessage(id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := d.db.First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (d *Database) GetConversationMessages(conversationID uuid.UUID, q MessageQuery) ([]models.Message, error) {
	var messages []models.Message

	query := d.db.Where("conversation_id = ?", conversationID)

	if !q.Before.IsZero() {
		err := query.
			Where("created_at < ?", q.Before).
			Order("created_at DESC").
			Limit(q.PageSize).
			Find(&messages).Error
		return messages, err
	}

	order := "created_at DESC"
	if q.Ascending {
		order = "created_at ASC"
	}

	offset := 0
	if q.Page > 1 {
		offset = (q.Page - 1) * q.PageSize
	}

	err := query.
		Order(order).
		Offset(offset).
		Limit(q.PageSize).
		Find(&messages).Error

	return messages, err
}
