package middleware

import (
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "gin-user-registry/internal/transport/http/response"
)

// Recovery panic 记录堆栈后返回 500 problem
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(l, true, func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(resp.CodeServerError, resp.Error(resp.CodeServerError, ""))
	})
}
