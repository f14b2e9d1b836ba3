package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *Handlers) {
	api := r.Group("/api")

	// Session routes - static routes first
	api.GET("/sessions", h.ListSessions)
	api.GET("/sessions/active", h.GetActiveSessions)
	api.GET("/sessions/:id", h.GetSession)
	api.GET("/sessions/:id/messages", h.GetSessionMessages)
	api.GET("/sessions/:id/artifacts", h.GetSessionArtifacts)
	api.GET("/sessions/:id/context", h.GenerateContext)
	api.POST("/sessions/:id/context", h.GenerateContext)

	api.GET("/stats", h.GetStats)
	api.GET("/search", h.SearchSessions)

	// Artifact routes
	api.GET("/artifacts", h.ListArtifacts)
	api.GET("/artifacts/stats", h.GetArtifactStats)
	api.GET("/artifacts/content", h.GetArtifactContent)
}
