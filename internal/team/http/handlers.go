package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamdesk-hq/teamdesk-backend/internal/auth"
	"github.com/teamdesk-hq/teamdesk-backend/internal/team/domain"
)

// Capabilities answers the UI's gating queries. Unresolvable callers
// get false/null answers rather than an error.
func (h *Handler) Capabilities(c *gin.Context) {
	userID := auth.CurrentUserID(c)

	var currentUserID any
	if userID != "" {
		currentUserID = userID
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":              currentUserID,
		"can_access_team_page": h.teamService.CanAccessTeamPage(c.Request.Context(), userID),
		"is_admin":             h.teamService.IsAdmin(c.Request.Context(), userID),
	})
}

// GetMe returns the caller's own profile.
func (h *Handler) GetMe(c *gin.Context) {
	userID := auth.CurrentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	user, err := h.teamService.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = h.teamService.RecordLogin(c.Request.Context(), userID)

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// AdminSignup completes an admin profile after a secret-validated signup.
func (h *Handler) AdminSignup(c *gin.Context) {
	fuid := auth.CurrentFirebaseUID(c)
	if fuid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req adminSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.signupService.ValidateSecretCode(req.SecretCode); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.signupService.CompleteAdminProfile(
		c.Request.Context(), fuid, auth.CurrentEmail(c), req.FirstName, req.LastName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListUsers returns the whole directory for the team page.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.teamService.ListUsers(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// ListTeamLeads returns the people managers for the team-lead picker.
func (h *Handler) ListTeamLeads(c *gin.Context) {
	leads, err := h.teamService.ListTeamLeads(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"team_leads": leads})
}

// CreateUser provisions a new user. Admin only.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.teamService.CreateUser(c.Request.Context(), auth.CurrentUserID(c), &domain.CreateUserRequest{
		Email:           req.Email,
		Password:        req.Password,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Role:            domain.Role(req.Role),
		IsPeopleManager: req.IsPeopleManager,
		TeamLead:        req.TeamLead,
		IsActive:        req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// UpdateUser replaces a user's directory fields. Admin only.
func (h *Handler) UpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.teamService.UpdateUser(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"), &domain.UpdateUserRequest{
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Role:            domain.Role(req.Role),
		IsPeopleManager: req.IsPeopleManager,
		TeamLead:        req.TeamLead,
		IsActive:        req.IsActive,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeactivateUser deactivates a user. Admin only, never self.
func (h *Handler) DeactivateUser(c *gin.Context) {
	err := h.teamService.DeactivateUser(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ReactivateUser reactivates a user. Admin only.
func (h *Handler) ReactivateUser(c *gin.Context) {
	err := h.teamService.ReactivateUser(c.Request.Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrSecretMismatch),
		errors.Is(err, domain.ErrUserInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrSelfDeactivate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
