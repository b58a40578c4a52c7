package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scriptRunner 令牌桶只依赖的 Redis 命令
type scriptRunner interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// TokenBucketLimiter 基于 Redis 的令牌桶限流器
type TokenBucketLimiter struct {
	client scriptRunner
	config Config
}

// NewTokenBucketLimiter 创建令牌桶限流器
func NewTokenBucketLimiter(client scriptRunner, cfg Config) *TokenBucketLimiter {
	cfg.normalize()
	return &TokenBucketLimiter{client: client, config: cfg}
}

// Redis Lua脚本：令牌桶算法
const tokenBucketScript = `
-- KEYS[1]: 令牌桶key
-- ARGV[1]: 容量(burst)
-- ARGV[2]: 补充速率(rate)
-- ARGV[3]: 时间窗口(毫秒)
-- ARGV[4]: 当前时间戳(毫秒)

local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local window = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(bucket[1]) or capacity
local last_refill = tonumber(bucket[2]) or now

-- 按流逝时间补充令牌
local time_passed = math.max(0, now - last_refill)
local tokens_to_add = math.floor(time_passed * rate / window)
if tokens_to_add > 0 then
    tokens = math.min(capacity, tokens + tokens_to_add)
    last_refill = now
end

local allowed = 0
local retry_after = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
else
    retry_after = math.ceil(window / rate)
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill', last_refill)
redis.call('PEXPIRE', key, window * 2)

return {allowed, tokens, retry_after}
`

func (tb *TokenBucketLimiter) getKey(key string) string {
	return fmt.Sprintf("%s:%s", tb.config.KeyPrefix, key)
}

// Allow 检查是否允许请求通过
func (tb *TokenBucketLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	result := tb.client.Eval(ctx, tokenBucketScript,
		[]string{tb.getKey(key)},
		tb.config.Burst,
		tb.config.Rate,
		tb.config.Window.Milliseconds(),
		time.Now().UnixMilli(),
	)
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to execute token bucket script: %w", err)
	}

	values, ok := result.Val().([]interface{})
	if !ok || len(values) != 3 {
		return nil, fmt.Errorf("unexpected script result format")
	}
	allowed, ok1 := values[0].(int64)
	remaining, ok2 := values[1].(int64)
	retryAfter, ok3 := values[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("unexpected script result types")
	}

	return &LimitResult{
		Allowed:    allowed == 1,
		Remaining:  remaining,
		RetryAfter: time.Duration(retryAfter) * time.Millisecond,
	}, nil
}

// Reset 重置令牌桶
func (tb *TokenBucketLimiter) Reset(ctx context.Context, key string) error {
	if err := tb.client.Del(ctx, tb.getKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to reset token bucket: %w", err)
	}
	return nil
}
