package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamdesk-hq/teamdesk-backend/internal/auth"
	"github.com/teamdesk-hq/teamdesk-backend/internal/calls/domain"
	teamdomain "github.com/teamdesk-hq/teamdesk-backend/internal/team/domain"
)

// ListMyCalls returns the caller's calls, optionally filtered by
// ?status=, newest first.
func (h *Handler) ListMyCalls(c *gin.Context) {
	var status *domain.CallStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.CallStatus(raw)
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
		status = &s
	}

	calls, err := h.callService.GetMyCalls(c.Request.Context(), auth.CurrentUserID(c), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

// ListActiveCalls returns the caller's currently active calls.
func (h *Handler) ListActiveCalls(c *gin.Context) {
	calls, err := h.callService.GetActiveCalls(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

// GetCall returns one call with names resolved.
func (h *Handler) GetCall(c *gin.Context) {
	call, err := h.callService.GetCall(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"call": call})
}

// CreateCall records a call whose remote room already exists.
func (h *Handler) CreateCall(c *gin.Context) {
	var req createCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	call, err := h.callService.CreateCall(c.Request.Context(), auth.CurrentUserID(c), &domain.CreateCallRequest{
		StreamCallID:   req.StreamCallID,
		CallType:       domain.CallType(req.CallType),
		ParticipantIDs: req.ParticipantIDs,
		ScheduledTime:  req.ScheduledTime,
		Metadata:       req.Metadata,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"call": call})
}

// UpdateStatus applies a lifecycle transition.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.callService.UpdateCallStatus(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"), &domain.StatusUpdate{
		Status:       domain.CallStatus(req.Status),
		EndTime:      req.EndTime,
		Duration:     req.Duration,
		RecordingURL: req.RecordingURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AddParticipant invites another user to the call. Initiator only.
func (h *Handler) AddParticipant(c *gin.Context) {
	var req addParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.callService.AddParticipant(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"), req.ParticipantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// UpdateMetadata replaces the call's metadata object.
func (h *Handler) UpdateMetadata(c *gin.Context) {
	var req updateMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.callService.UpdateCallMetadata(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"), &req.Metadata)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// DeleteCall removes an ended or cancelled call. Initiator only.
func (h *Handler) DeleteCall(c *gin.Context) {
	err := h.callService.DeleteCall(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, teamdomain.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrInitiatorOnly),
		errors.Is(err, teamdomain.ErrUserInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCallNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateParticipant):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotDeletable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidParticipant),
		errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
