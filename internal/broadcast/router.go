// Package broadcast fans out persisted messages to online participants.
// Delivery is fire-and-forget: the message store is the source of truth and
// a failed push is recovered by the client through message listing, never by
// a redelivery here.
package broadcast

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"eduline/internal/notify"
)

// Event describes a message that has already been durably persisted.
type Event struct {
	MessageID      uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Participants   []uuid.UUID
	CreatedAt      time.Time
	Payload        []byte
}

// RoomPusher delivers to every gateway connection joined to the
// conversation's room.
type RoomPusher interface {
	SendToRoom(conversationID uuid.UUID, payload []byte)
}

// FallbackPusher delivers to a user's fallback stream handles.
type FallbackPusher interface {
	SendToUser(userID uuid.UUID, payload []byte)
}

// Publisher is what producers (the message store path) see of the router.
type Publisher interface {
	Publish(ev Event)
}

// Router consumes message-created events from a channel, decoupling the
// persistence path from transport pushes.
type Router struct {
	rooms    RoomPusher
	fallback FallbackPusher
	sink     notify.Sink

	events chan Event
	done   chan struct{}
}

func NewRouter(rooms RoomPusher, fallback FallbackPusher, sink notify.Sink) *Router {
	return &Router{
		rooms:    rooms,
		fallback: fallback,
		sink:     sink,
		events:   make(chan Event, 256),
		done:     make(chan struct{}),
	}
}

// Publish enqueues an event for fan-out. Events are only published after the
// message is persisted.
func (r *Router) Publish(ev Event) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

func (r *Router) Run() {
	for {
		select {
		case <-r.done:
			return
		case ev := <-r.events:
			r.deliver(ev)
		}
	}
}

func (r *Router) Stop() {
	close(r.done)
}

// deliver pushes to the gateway room, to every participant's fallback
// channels, and enqueues a notification per non-sender recipient. Each leg
// fails independently; a participant is delivered on both channels when both
// are live and clients deduplicate by message id.
func (r *Router) deliver(ev Event) {
	r.rooms.SendToRoom(ev.ConversationID, ev.Payload)

	for _, participantID := range ev.Participants {
		r.fallback.SendToUser(participantID, ev.Payload)

		if participantID == ev.SenderID {
			continue
		}
		d := notify.Delivery{
			RecipientID:    participantID,
			MessageID:      ev.MessageID,
			ConversationID: ev.ConversationID,
			SenderID:       ev.SenderID,
			CreatedAt:      ev.CreatedAt,
		}
		if err := r.sink.MessageDelivered(context.Background(), d); err != nil {
			log.Printf("notification enqueue failed for %s: %v", participantID, err)
		}
	}
}
