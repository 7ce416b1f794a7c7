package dto

// MessagePayload carries inbound message content, both on the REST path and
// inside gateway MESSAGE events.
type MessagePayload struct {
	Content string `json:"content" binding:"required"`
}
