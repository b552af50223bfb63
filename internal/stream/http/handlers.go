package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamdesk-hq/teamdesk-backend/internal/auth"
	callsdomain "github.com/teamdesk-hq/teamdesk-backend/internal/calls/domain"
	"github.com/teamdesk-hq/teamdesk-backend/internal/stream"
	"github.com/teamdesk-hq/teamdesk-backend/internal/stream/service"
	teamdomain "github.com/teamdesk-hq/teamdesk-backend/internal/team/domain"
	teamservice "github.com/teamdesk-hq/teamdesk-backend/internal/team/service"
)

type Handler struct {
	streamService *service.StreamService
	teamService   *teamservice.TeamService
}

func New(streamService *service.StreamService, teamService *teamservice.TeamService) *Handler {
	return &Handler{
		streamService: streamService,
		teamService:   teamService,
	}
}

type createRemoteCallRequest struct {
	CallType       string                    `json:"call_type" binding:"required"`
	ParticipantIDs []string                  `json:"participant_ids"`
	ScheduledTime  *int64                    `json:"scheduled_time"`
	Metadata       *callsdomain.CallMetadata `json:"metadata"`
}

type endByStreamIDRequest struct {
	StreamCallID string `json:"stream_call_id" binding:"required"`
}

// MintToken returns a transport bearer token for the caller.
func (h *Handler) MintToken(c *gin.Context) {
	grant, err := h.streamService.MintAccessToken(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grant)
}

// TeardownSession drops the caller's transport session.
func (h *Handler) TeardownSession(c *gin.Context) {
	if err := h.streamService.TeardownSession(c.Request.Context(), auth.CurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// CreateRemoteCall creates the remote room and the local record.
func (h *Handler) CreateRemoteCall(c *gin.Context) {
	var req createRemoteCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.streamService.CreateRemoteCall(c.Request.Context(), auth.CurrentUserID(c), &callsdomain.CreateCallRequest{
		CallType:       callsdomain.CallType(req.CallType),
		ParticipantIDs: req.ParticipantIDs,
		ScheduledTime:  req.ScheduledTime,
		Metadata:       req.Metadata,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetRemoteCall resolves the remote room reference for a local call.
func (h *Handler) GetRemoteCall(c *gin.Context) {
	ref, err := h.streamService.GetRemoteCall(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ref)
}

// EndRemoteCall force-ends a call; the local record always reaches ended.
func (h *Handler) EndRemoteCall(c *gin.Context) {
	if err := h.streamService.EndRemoteCall(c.Request.Context(), auth.CurrentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// EndByStreamID is the admin cleanup utility for orphaned remote rooms.
func (h *Handler) EndByStreamID(c *gin.Context) {
	if !h.teamService.IsAdmin(c.Request.Context(), auth.CurrentUserID(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}

	var req endByStreamIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result := h.streamService.EndRemoteCallByStreamID(c.Request.Context(), req.StreamCallID)
	c.JSON(http.StatusOK, result)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, teamdomain.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, teamdomain.ErrUserInactive),
		errors.Is(err, callsdomain.ErrForbidden),
		errors.Is(err, callsdomain.ErrInitiatorOnly):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, teamdomain.ErrUserNotFound),
		errors.Is(err, callsdomain.ErrCallNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, callsdomain.ErrInvalidParticipant):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, callsdomain.ErrDuplicateParticipant),
		errors.Is(err, callsdomain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, stream.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
