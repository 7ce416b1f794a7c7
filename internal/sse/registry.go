// Package sse is the fallback delivery channel: a per-user list of
// server-sent-event emitters pushed to when a message arrives, whether or
// not the user also holds a gateway connection.
package sse

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

const emitterBuffer = 32

// Emitter is one live push handle. The HTTP handler drains C until either
// the client disconnects or the registry closes the emitter.
type Emitter struct {
	C chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newEmitter() *Emitter {
	return &Emitter{
		C:    make(chan []byte, emitterBuffer),
		done: make(chan struct{}),
	}
}

// Done is closed when the emitter has been removed from the registry.
func (e *Emitter) Done() <-chan struct{} {
	return e.done
}

func (e *Emitter) close() {
	e.closeOnce.Do(func() {
		close(e.done)
	})
}

// Registry tracks fallback emitters per user. A user may hold several
// emitters at once (multiple tabs, multiple devices).
type Registry struct {
	mu       sync.Mutex
	emitters map[uuid.UUID][]*Emitter
}

func NewRegistry() *Registry {
	return &Registry{emitters: make(map[uuid.UUID][]*Emitter)}
}

// Subscribe opens a new push handle for the user.
func (r *Registry) Subscribe(userID uuid.UUID) *Emitter {
	e := newEmitter()
	r.mu.Lock()
	r.emitters[userID] = append(r.emitters[userID], e)
	r.mu.Unlock()
	return e
}

// Remove drops the emitter from the user's list and closes it. Idempotent.
func (r *Registry) Remove(userID uuid.UUID, e *Emitter) {
	r.mu.Lock()
	list := r.emitters[userID]
	for i, candidate := range list {
		if candidate == e {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.emitters, userID)
	} else {
		r.emitters[userID] = list
	}
	r.mu.Unlock()

	e.close()
}

// SendToUser pushes payload to every live emitter of the user. Emitters that
// cannot accept the payload (closed, or backed up past their buffer) are
// removed so the list heals itself; delivery to the remaining emitters is
// unaffected.
func (r *Registry) SendToUser(userID uuid.UUID, payload []byte) {
	r.mu.Lock()
	snapshot := make([]*Emitter, len(r.emitters[userID]))
	copy(snapshot, r.emitters[userID])
	r.mu.Unlock()

	for _, e := range snapshot {
		select {
		case <-e.done:
			r.Remove(userID, e)
		case e.C <- payload:
		default:
			log.Printf("dropping backed-up fallback emitter for user %s", userID)
			r.Remove(userID, e)
		}
	}
}

// Count returns the number of live emitters for the user.
func (r *Registry) Count(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.emitters[userID])
}
