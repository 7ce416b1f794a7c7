package handlers

import (
	"errors"
	"net/http"

	"eduline/internal/chat"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, chat.ErrInvalidParticipantCount),
		errors.Is(err, chat.ErrMessageTooLong),
		errors.Is(err, chat.ErrUnknownConversationType):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrConversationExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
