package http

import (
	"github.com/teamdesk-hq/teamdesk-backend/internal/team/service"
)

type Handler struct {
	teamService   *service.TeamService
	signupService *service.AdminSignupService
}

func New(teamService *service.TeamService, signupService *service.AdminSignupService) *Handler {
	return &Handler{
		teamService:   teamService,
		signupService: signupService,
	}
}

type createUserRequest struct {
	Email           string  `json:"email" binding:"required"`
	Password        string  `json:"password" binding:"required"`
	FirstName       string  `json:"first_name" binding:"required"`
	LastName        string  `json:"last_name" binding:"required"`
	Role            string  `json:"role" binding:"required"`
	IsPeopleManager bool    `json:"is_people_manager"`
	TeamLead        *string `json:"team_lead"`
	IsActive        bool    `json:"is_active"`
}

type updateUserRequest struct {
	Email           string  `json:"email" binding:"required"`
	FirstName       string  `json:"first_name" binding:"required"`
	LastName        string  `json:"last_name" binding:"required"`
	Role            string  `json:"role" binding:"required"`
	IsPeopleManager bool    `json:"is_people_manager"`
	TeamLead        *string `json:"team_lead"`
	IsActive        bool    `json:"is_active"`
}

type adminSignupRequest struct {
	SecretCode string `json:"secret_code" binding:"required"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
}
