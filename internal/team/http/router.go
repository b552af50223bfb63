package http

import "github.com/gin-gonic/gin"

// Register wires the auth and team route groups.
func (h *Handler) Register(api *gin.RouterGroup, signupLimiter gin.HandlerFunc) {
	authGroup := api.Group("/auth")
	if signupLimiter != nil {
		authGroup.POST("/signup", signupLimiter, h.AdminSignup)
	} else {
		authGroup.POST("/signup", h.AdminSignup)
	}
	authGroup.GET("/me", h.GetMe)

	team := api.Group("/team")
	team.GET("/capabilities", h.Capabilities)
	team.GET("/users", h.ListUsers)
	team.GET("/team-leads", h.ListTeamLeads)
	team.POST("/users", h.CreateUser)
	team.PUT("/users/:id", h.UpdateUser)
	team.POST("/users/:id/deactivate", h.DeactivateUser)
	team.POST("/users/:id/reactivate", h.ReactivateUser)
}
