package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"eduline/internal/middleware"
	ws "eduline/internal/websocket"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	gateway  *Gateway
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, gateway *Gateway) *WebSocketHandler {
	return &WebSocketHandler{
		hub:     hub,
		gateway: gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: restrict origin once the web client's domain is fixed
				return true
			},
		},
	}
}

// HandleWebSocket upgrades an authenticated request into a gateway
// connection. Authentication already happened in the stream middleware; a
// request that failed it never reaches the upgrade.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID.(uuid.UUID))

	h.hub.Register(client)
	// The request context dies with the handler; lifecycle work outlives it.
	h.gateway.OnConnect(context.Background(), client)

	go client.WritePump()
	go client.ReadPump(h.gateway)
}
