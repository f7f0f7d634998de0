package middleware

import (
	"github.com/gin-gonic/gin"

	"gin-user-registry/pkg/utils"
)

const KeyRequestID = "X-Request-ID"

// RequestID 透传客户端的 X-Request-ID，没有则生成
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(KeyRequestID)
		if rid == "" || len(rid) > 128 {
			rid = utils.NewID()
		}
		c.Header(KeyRequestID, rid)
		c.Set(KeyRequestID, rid)
		c.Next()
	}
}
