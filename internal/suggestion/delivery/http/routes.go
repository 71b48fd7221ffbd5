package http

import (
	"github.com/gin-gonic/gin"

	"talk-support/internal/middleware"
)

// RegisterRoutes maps HTTP verbs and paths to Handler methods.
func RegisterRoutes(rg *gin.RouterGroup, h Handler, mw middleware.Middleware) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", mw.RateLimit(), h.CreateSession)
		sessions.DELETE("/:id", mw.RateLimit(), h.DeleteSession)
		sessions.GET("/:id/topics", h.StreamTopics)
	}
}
