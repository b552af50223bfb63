package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.ListMyCalls)
	rg.GET("/active", h.ListActiveCalls)
	rg.GET("/:id", h.GetCall)
	rg.POST("", h.CreateCall)
	rg.PATCH("/:id/status", h.UpdateStatus)
	rg.POST("/:id/participants", h.AddParticipant)
	rg.PUT("/:id/metadata", h.UpdateMetadata)
	rg.DELETE("/:id", h.DeleteCall)
}
