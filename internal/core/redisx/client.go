// Package redisx redis 连接与基于计数窗口的限流
package redisx

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	RDB    *redis.Client
	Prefix string // key 前缀，多个服务共用一个 redis 时区分
}

func New(addr, pass string, db int, prefix string) *Client {
	return &Client{
		RDB:    redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		Prefix: prefix,
	}
}

// Ping 启动时探测，也用于 /health
func (c *Client) Ping(ctx context.Context) error { return c.RDB.Ping(ctx).Err() }

func (c *Client) Close() error { return c.RDB.Close() }

// Allow 固定窗口计数：同一 key 在一个窗口内最多 limit 次。
// 返回本窗口已用次数；redis 出错时由调用方决定放行或拒绝。
func (c *Client) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, error) {
	if window <= 0 {
		window = time.Second
	}
	slot := time.Now().UnixNano() / int64(window)
	k := c.Prefix + "rl:" + key + ":" + strconv.FormatInt(slot, 10)

	pipe := c.RDB.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}
	n := incr.Val()
	return n <= int64(limit), n, nil
}
