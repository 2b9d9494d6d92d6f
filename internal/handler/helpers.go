package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/laifehacker/chatgpt2claude/internal/pkg/errcode"
	appErr "github.com/laifehacker/chatgpt2claude/internal/pkg/errors"
	"github.com/laifehacker/chatgpt2claude/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, "not found")
	case err == appErr.ErrInvalid:
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case err == appErr.ErrNoData:
		response.Error(c, errcode.ErrNoData, "no data imported")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
