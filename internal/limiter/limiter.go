// Package limiter 提供按客户端维度的令牌桶限流
package limiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// LimitResult 限流结果
type LimitResult struct {
	Allowed    bool          `json:"allowed"`     // 是否允许通过
	Remaining  int64         `json:"remaining"`   // 剩余令牌
	RetryAfter time.Duration `json:"retry_after"` // 建议重试时间
}

// Limiter 限流器接口
type Limiter interface {
	// Allow 检查 key 对应的桶是否还有令牌
	Allow(ctx context.Context, key string) (*LimitResult, error)

	// Reset 重置限流状态
	Reset(ctx context.Context, key string) error
}

// Config 限流配置：每个 Window 补充 Rate 个令牌，桶容量为 Burst
type Config struct {
	Rate      int64
	Window    time.Duration
	Burst     int64
	KeyPrefix string
}

func (c *Config) normalize() {
	if c.Rate <= 0 {
		c.Rate = 1
	}
	if c.Window <= 0 {
		c.Window = time.Second
	}
	if c.Burst < c.Rate {
		c.Burst = c.Rate
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "limiter:tb"
	}
}

// New 有 Redis 客户端时多实例共享令牌桶，否则退回进程内限流
func New(client redis.Cmdable, cfg Config) Limiter {
	if client != nil {
		return NewTokenBucketLimiter(client, cfg)
	}
	return NewLocalLimiter(cfg)
}
