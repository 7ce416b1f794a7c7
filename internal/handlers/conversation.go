package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eduline/internal/chat"
	"eduline/internal/handlers/dto"
	"eduline/internal/middleware"
	"eduline/internal/session"
)

type ConversationHandler struct {
	directory *chat.Directory
	sessions  *session.Registry
}

func NewConversationHandler(directory *chat.Directory, sessions *session.Registry) *ConversationHandler {
	return &ConversationHandler{directory: directory, sessions: sessions}
}

// CreateConversation creates a conversation with a fixed participant set.
// Creating an already-existing direct conversation returns the existing one.
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	typ, err := chat.ParseConversationType(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participantIDs := make([]uuid.UUID, 0, len(req.ParticipantIDs)+1)
	creatorIncluded := false
	for _, raw := range req.ParticipantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant id"})
			return
		}
		if id == userID {
			creatorIncluded = true
		}
		participantIDs = append(participantIDs, id)
	}
	if !creatorIncluded {
		participantIDs = append(participantIDs, userID)
	}

	view, err := h.directory.CreateConversation(c.Request.Context(), typ, userID, participantIDs)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GetConversations lists the caller's conversations by recency.
func (h *ConversationHandler) GetConversations(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", chat.DefaultPageSize)

	views, err := h.directory.ListConversations(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": views})
}

// GetConversation returns one conversation, annotated with which
// participants currently hold a live session.
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	view, err := h.directory.GetConversation(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	participantIDs := make([]uuid.UUID, len(view.Participants))
	for i, p := range view.Participants {
		participantIDs[i] = p.ID
	}

	// Presence is decoration; a registry outage degrades to nobody-online.
	online := make([]uuid.UUID, 0, len(participantIDs))
	if presence, err := h.sessions.OnlineUsers(c.Request.Context(), participantIDs); err == nil {
		for _, id := range participantIDs {
			if presence[id] {
				online = append(online, id)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation":        view,
		"online_participants": online,
	})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
