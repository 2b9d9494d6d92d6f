package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/laifehacker/chatgpt2claude/internal/pkg/errcode"
	"github.com/laifehacker/chatgpt2claude/internal/pkg/response"
	"github.com/laifehacker/chatgpt2claude/internal/service"
)

type SearchHandler struct {
	searches *service.SearchService
}

func NewSearchHandler(searches *service.SearchService) *SearchHandler {
	return &SearchHandler{searches: searches}
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Query == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	results, err := h.searches.Search(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"query": req.Query, "results": results})
}
