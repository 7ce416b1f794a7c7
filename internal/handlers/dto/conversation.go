package dto

type CreateConversationRequest struct {
	Type           string   `json:"type" binding:"required,oneof=direct group"`
	ParticipantIDs []string `json:"participant_ids" binding:"required"`
}
