package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	resp "gin-user-registry/internal/transport/http/response"
)

func tooMany(c *gin.Context) {
	c.AbortWithStatusJSON(resp.CodeTooManyRequests, resp.Error(resp.CodeTooManyRequests, ""))
}

// RateLimit 全局令牌桶限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if !lim.Allow() {
			tooMany(c)
			return
		}
		c.Next()
	}
}

// RateLimitPerIP 每 IP 一个令牌桶；空闲的桶定期清理
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	ips := newIPBuckets(rps, burst, time.Now)
	return func(c *gin.Context) {
		if !ips.allow(c.ClientIP()) {
			tooMany(c)
			return
		}
		c.Next()
	}
}

type ipBucket struct {
	lim  *rate.Limiter
	last time.Time
}

type ipBuckets struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	idle      time.Duration // 空闲超过 idle 的桶早已回满，删掉不影响限速结果
	now       func() time.Time
	lastSweep time.Time
	m         map[string]*ipBucket
}

func newIPBuckets(rps rate.Limit, burst int, now func() time.Time) *ipBuckets {
	idle := time.Minute
	if rps > 0 {
		idle = max(idle, time.Duration(float64(burst)/float64(rps)*float64(time.Second)))
	}
	return &ipBuckets{rps: rps, burst: burst, idle: idle, now: now, lastSweep: now(), m: make(map[string]*ipBucket)}
}

func (b *ipBuckets) allow(ip string) bool {
	t := b.now()
	b.mu.Lock()
	if t.Sub(b.lastSweep) >= b.idle {
		for k, e := range b.m {
			if t.Sub(e.last) >= b.idle {
				delete(b.m, k)
			}
		}
		b.lastSweep = t
	}
	e, ok := b.m[ip]
	if !ok {
		e = &ipBucket{lim: rate.NewLimiter(b.rps, b.burst)}
		b.m[ip] = e
	}
	e.last = t
	b.mu.Unlock()
	return e.lim.AllowN(t, 1)
}

func (b *ipBuckets) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.m)
}

// WindowCounter 跨实例共享的计数窗口（redisx.Client 实现）
type WindowCounter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, error)
}

// RateLimitShared 多实例共享的每 IP 限速；计数后端出错时放行
func RateLimitShared(wc WindowCounter, limit int, window time.Duration, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, _, err := wc.Allow(c.Request.Context(), c.ClientIP(), limit, window)
		if err != nil {
			l.Warn("rate limit backend error", zap.String("ip", c.ClientIP()), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			tooMany(c)
			return
		}
		c.Next()
	}
}
