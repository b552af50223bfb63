package http

import "github.com/gin-gonic/gin"

// Register mounts the video transport routes on the given group. The
// limiter throttles token minting.
func (h *Handler) Register(api *gin.RouterGroup, tokenLimiter gin.HandlerFunc) {
	streamGroup := api.Group("/stream")
	{
		if tokenLimiter != nil {
			streamGroup.POST("/token", tokenLimiter, h.MintToken)
		} else {
			streamGroup.POST("/token", h.MintToken)
		}
		streamGroup.DELETE("/session", h.TeardownSession)
		streamGroup.POST("/calls", h.CreateRemoteCall)
		streamGroup.GET("/calls/:id", h.GetRemoteCall)
		streamGroup.POST("/calls/:id/end", h.EndRemoteCall)
		streamGroup.POST("/admin/end-by-stream-id", h.EndByStreamID)
	}
}
