package chat

import "errors"

var (
	ErrConversationNotFound    = errors.New("conversation not found")
	ErrNotParticipant          = errors.New("user is not a participant of this conversation")
	ErrConversationExists      = errors.New("conversation already exists")
	ErrInvalidParticipantCount = errors.New("invalid participant count")
	ErrMessageTooLong          = errors.New("message content exceeds maximum length")
	ErrUnknownConversationType = errors.New("unknown conversation type")
)
