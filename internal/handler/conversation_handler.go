package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/laifehacker/chatgpt2claude/internal/pkg/response"
	"github.com/laifehacker/chatgpt2claude/internal/service"
)

type ConversationHandler struct {
	conversations *service.ConversationService
}

func NewConversationHandler(conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

func (h *ConversationHandler) List(c *gin.Context) {
	limit := parseUint(c.Query("limit"), 20)
	offset := parseUint(c.Query("offset"), 0)
	keyword := c.Query("keyword")

	items, err := h.conversations.List(c.Request.Context(), limit, offset, keyword)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"conversations": items,
		"offset":        offset,
		"more":          uint(len(items)) == limit,
	})
}

func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.conversations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, conv)
}

func (h *ConversationHandler) Transcript(c *gin.Context) {
	transcript, err := h.conversations.Transcript(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Markdown(c, transcript)
}

func (h *ConversationHandler) Overview(c *gin.Context) {
	overview, err := h.conversations.Overview(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, overview)
}

func parseUint(value string, fallback uint) uint {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return uint(parsed)
}
