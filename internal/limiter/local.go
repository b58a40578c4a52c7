package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxLocalBuckets 进程内桶数量上限，超过后整体重建
const maxLocalBuckets = 10000

// LocalLimiter 进程内令牌桶，单实例部署或未启用 Redis 时使用
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewLocalLimiter 创建进程内限流器
func NewLocalLimiter(cfg Config) *LocalLimiter {
	cfg.normalize()
	return &LocalLimiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Every(cfg.Window / time.Duration(cfg.Rate)),
		burst:   int(cfg.Burst),
	}
}

func (l *LocalLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxLocalBuckets {
			l.buckets = make(map[string]*rate.Limiter)
		}
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	return b
}

// Allow 检查是否允许请求通过
func (l *LocalLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	b := l.bucket(key)
	now := time.Now()

	r := b.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return &LimitResult{Allowed: false, Remaining: 0, RetryAfter: delay}, nil
	}
	return &LimitResult{Allowed: true, Remaining: int64(b.TokensAt(now))}, nil
}

// Reset 重置限流状态
func (l *LocalLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
	return nil
}
