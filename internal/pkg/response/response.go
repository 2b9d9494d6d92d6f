package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// codeErr carries a machine-readable code through proxyutil's error
// envelope. The HTTP status stays 200; the code field is the contract.
type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, http.StatusOK, codeErr{code: uint32(code), msg: message})
}

// Markdown writes a raw markdown payload, bypassing the JSON envelope.
// Used for transcripts meant to be piped into other tools as-is.
func Markdown(c *gin.Context, body string) {
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(body))
}
