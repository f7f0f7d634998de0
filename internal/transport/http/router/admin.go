package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewAdminEngine 管理端：/health、/metrics + /admin/v1/*
func NewAdminEngine(l *zap.Logger, reg *Registry, o Options) *gin.Engine {
	r := newEngine(l, "admin", o)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	reg.MountAdmin(r.Group("/admin/v1"))
	return r
}
