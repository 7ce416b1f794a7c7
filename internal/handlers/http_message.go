package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eduline/internal/chat"
	"eduline/internal/handlers/dto"
	"eduline/internal/middleware"
)

// HTTPMessageHandler is the out-of-band REST path to the message store.
// It reads and writes the same store as the gateway so clients without a
// live connection observe identical state.
type HTTPMessageHandler struct {
	messages *chat.Messages
}

func NewHTTPMessageHandler(messages *chat.Messages) *HTTPMessageHandler {
	return &HTTPMessageHandler{messages: messages}
}

// SendMessage persists and broadcasts a message over REST.
func (h *HTTPMessageHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	var req dto.MessagePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.messages.Create(c.Request.Context(), conversationID, userID, req.Content)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetMessages retrieves history either by offset paging (page, page_size,
// sort) or by cursor (before=RFC3339 timestamp, strictly older, newest
// first).
func (h *HTTPMessageHandler) GetMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	query := chat.MessageQuery{
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", chat.DefaultPageSize),
		Ascending: c.Query("sort") == "asc",
	}

	if before := c.Query("before"); before != "" {
		t, err := time.Parse(time.RFC3339, before)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before timestamp"})
			return
		}
		query.Before = t
	}

	views, err := h.messages.List(c.Request.Context(), conversationID, userID, query)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": views,
		"has_more": len(views) == query.PageSize,
	})
}
