package handlers

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eduline/internal/middleware"
	"eduline/internal/sse"
)

// SSEHandler serves the fallback delivery stream. Clients without a gateway
// connection (or in addition to one) receive message pushes here.
type SSEHandler struct {
	registry *sse.Registry
}

func NewSSEHandler(registry *sse.Registry) *SSEHandler {
	return &SSEHandler{registry: registry}
}

// HandleEvents opens a server-sent-event stream and pushes serialized
// message payloads until the client disconnects.
func (h *SSEHandler) HandleEvents(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	emitter := h.registry.Subscribe(userID)
	defer h.registry.Remove(userID, emitter)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case payload, ok := <-emitter.C:
			if !ok {
				return false
			}
			c.SSEvent("message", string(payload))
			return true
		case <-emitter.Done():
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}
