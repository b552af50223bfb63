package http

import (
	"github.com/teamdesk-hq/teamdesk-backend/internal/calls/domain"
	"github.com/teamdesk-hq/teamdesk-backend/internal/calls/service"
)

type Handler struct {
	callService *service.CallService
}

func New(callService *service.CallService) *Handler {
	return &Handler{callService: callService}
}

type createCallRequest struct {
	StreamCallID   string               `json:"stream_call_id" binding:"required"`
	CallType       string               `json:"call_type" binding:"required"`
	ParticipantIDs []string             `json:"participant_ids"`
	ScheduledTime  *int64               `json:"scheduled_time"`
	Metadata       *domain.CallMetadata `json:"metadata"`
}

type updateStatusRequest struct {
	Status       string  `json:"status" binding:"required"`
	EndTime      *int64  `json:"end_time"`
	Duration     *int    `json:"duration"`
	RecordingURL *string `json:"recording_url"`
}

type addParticipantRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
}

type updateMetadataRequest struct {
	Metadata domain.CallMetadata `json:"metadata"`
}
