package main

import (
	"github.com/gin-gonic/gin"

	"eduline/internal/handlers"
	"eduline/internal/middleware"
	"eduline/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	validator auth.TokenValidator,
	conversationH *handlers.ConversationHandler,
	messageH *handlers.HTTPMessageHandler,
	wsH *handlers.WebSocketHandler,
	sseH *handlers.SSEHandler,
) {
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(validator))
	{
		api.POST("/conversations", conversationH.CreateConversation)
		api.GET("/conversations", conversationH.GetConversations)
		api.GET("/conversations/:id", conversationH.GetConversation)

		api.POST("/conversations/:id/messages", messageH.SendMessage)
		api.GET("/conversations/:id/messages", messageH.GetMessages)
	}

	// Streaming endpoints accept the token as a handshake query parameter.
	stream := r.Group("/api/v1")
	stream.Use(middleware.StreamAuthMiddleware(validator))
	{
		stream.GET("/ws", wsH.HandleWebSocket)
		stream.GET("/events", sseH.HandleEvents)
	}
}
