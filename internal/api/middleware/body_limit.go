package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NoBody217/WeClass/pkg/response"
)

// BodyLimit 请求体大小限制中间件。
// 主要防护导入接口：日历文件通常在几十 KB 量级，
// maxBytes 之外的上传直接以 413 拒绝。
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		c.Next()
	}
}
