package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewAPIEngine 用户端：/health + /api/v1/*
func NewAPIEngine(l *zap.Logger, reg *Registry, o Options) *gin.Engine {
	r := newEngine(l, "api", o)
	reg.MountAPI(r.Group("/api/v1"))
	return r
}
