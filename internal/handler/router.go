package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/laifehacker/chatgpt2claude/internal/middleware"
)

type RouterDeps struct {
	Search           *SearchHandler
	Conversations    *ConversationHandler
	Stats            *StatsHandler
	SearchRateWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/search", middleware.RateLimit(deps.SearchRateWindow), deps.Search.Search)

	api.GET("/conversations", deps.Conversations.List)
	api.GET("/conversations/:id", deps.Conversations.Get)
	api.GET("/conversations/:id/transcript", deps.Conversations.Transcript)
	api.GET("/conversations/:id/overview", deps.Conversations.Overview)

	api.GET("/stats", deps.Stats.Get)
}
