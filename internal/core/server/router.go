package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	Name        string
	Mode        string   // gin.DebugMode / gin.ReleaseMode / gin.TestMode
	CORSOrigins []string // 为空则允许所有来源
}

// NewRouter 基础 engine：先挂调用方中间件，再挂 CORS
func NewRouter(o Options, mws ...gin.HandlerFunc) *gin.Engine {
	if o.Mode != "" {
		gin.SetMode(o.Mode)
	}
	r := gin.New()
	r.Use(mws...)

	cc := cors.DefaultConfig()
	if len(o.CORSOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = o.CORSOrigins
	}
	cc.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cc.AllowHeaders = append(cc.AllowHeaders, "X-Request-ID")
	cc.ExposeHeaders = []string{"Location", "X-Request-ID"}
	r.Use(cors.New(cc))
	return r
}

func StartHTTP(srv *http.Server, l *zap.Logger) error {
	l.Info("http starting", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}

// BuildServer errLog 为 nil 时使用标准库默认 logger
func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration, errLog *log.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       rt,
		ReadHeaderTimeout: rt,
		WriteTimeout:      wt,
		IdleTimeout:       it,
		MaxHeaderBytes:    1 << 20, // 1MB
		ErrorLog:          errLog,
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
