// Package notify hands delivery events to the platform's notification
// service through a Redis-backed task queue. The notification service owns
// persistence and rendering; the chat core only enqueues.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskTypeMessage is the queue task name consumed by the notification worker.
const TaskTypeMessage = "notification:message"

type Delivery struct {
	RecipientID    uuid.UUID `json:"recipient_id"`
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Sink records one delivery event per recipient of a new message.
type Sink interface {
	MessageDelivered(ctx context.Context, d Delivery) error
}

type AsynqSink struct {
	client *asynq.Client
}

func NewAsynqSink(redisURL string) (*AsynqSink, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("notify: parse redis url: %w", err)
	}
	return &AsynqSink{client: asynq.NewClient(opt)}, nil
}

func (s *AsynqSink) MessageDelivered(ctx context.Context, d Delivery) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskTypeMessage, payload)
	_, err = s.client.EnqueueContext(ctx, task, asynq.Queue("chat"), asynq.MaxRetry(5))
	return err
}

func (s *AsynqSink) Close() error {
	return s.client.Close()
}
