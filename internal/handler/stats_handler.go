package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/laifehacker/chatgpt2claude/internal/pkg/response"
	"github.com/laifehacker/chatgpt2claude/internal/service"
)

type StatsHandler struct {
	conversations *service.ConversationService
}

func NewStatsHandler(conversations *service.ConversationService) *StatsHandler {
	return &StatsHandler{conversations: conversations}
}

func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.conversations.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}
