package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gin-user-registry/internal/core/config"
	"gin-user-registry/internal/core/server"
	mdw "gin-user-registry/internal/transport/http/middleware"
	resp "gin-user-registry/internal/transport/http/response"
)

// Probe 健康检查项（db / redis）
type Probe func(ctx context.Context) error

type Options struct {
	Mode        string
	Limits      config.Limits
	CORSOrigins []string
	Probes      map[string]Probe

	// Shared 非 nil 时按 IP 跨实例限速（每 WindowSec 最多 Burst 次），替代进程内令牌桶
	Shared mdw.WindowCounter
}

// newEngine API 与 Admin 共用的中间件栈
func newEngine(l *zap.Logger, name string, o Options) *gin.Engine {
	mws := []gin.HandlerFunc{
		mdw.RequestID(),
		mdw.AccessLog(l),
		mdw.Recovery(l),
		mdw.Metrics(name),
	}
	lim := o.Limits
	switch {
	case o.Shared != nil:
		mws = append(mws, mdw.RateLimitShared(o.Shared, lim.Burst, time.Duration(lim.WindowSec)*time.Second, l))
	case lim.RPS > 0:
		if lim.PerIP {
			mws = append(mws, mdw.RateLimitPerIP(rate.Limit(lim.RPS), lim.Burst))
		} else {
			mws = append(mws, mdw.RateLimit(rate.Limit(lim.RPS), lim.Burst))
		}
	}
	if lim.MaxConcurrency > 0 {
		mws = append(mws, mdw.ConcurrencyLimit(lim.MaxConcurrency))
	}
	if lim.MaxBodyBytes > 0 {
		mws = append(mws, mdw.MaxBodyBytes(lim.MaxBodyBytes))
	}
	if lim.TimeoutSec > 0 {
		mws = append(mws, mdw.Timeout(time.Duration(lim.TimeoutSec)*time.Second))
	}

	r := server.NewRouter(server.Options{Name: name, Mode: o.Mode, CORSOrigins: o.CORSOrigins}, mws...)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Error(http.StatusNotFound, ""))
	})
	r.GET("/health", health(o.Probes))
	return r
}

// health 任一探测失败返回 503
func health(probes map[string]Probe) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := gin.H{"ok": 1}
		status := http.StatusOK
		for name, p := range probes {
			if err := p(c.Request.Context()); err != nil {
				out[name] = err.Error()
				out["ok"] = 0
				status = http.StatusServiceUnavailable
				continue
			}
			out[name] = "up"
		}
		c.JSON(status, out)
	}
}
