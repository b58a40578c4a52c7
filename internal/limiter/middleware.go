package limiter

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mw "github.com/MorseWayne/print_shop/internal/middleware"
	"github.com/MorseWayne/print_shop/internal/resp"
)

// 限流相关响应头
const (
	RemainingHeader  = "X-RateLimit-Remaining"
	RetryAfterHeader = "Retry-After"
)

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	// 限流器
	Limiter Limiter

	// Key生成函数，默认按客户端 IP
	KeyGenerator func(*gin.Context) string

	Logger *zap.Logger
}

// ClientIPKey 默认Key生成器（基于IP）
func ClientIPKey(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// RateLimitMiddleware 创建限流中间件
// 限流器不可用时放行请求，只记录告警
func RateLimitMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = ClientIPKey
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if cfg.Limiter == nil {
			c.Next()
			return
		}

		reqID := mw.RequestIDFromContext(c.Request.Context())
		key := cfg.KeyGenerator(c)

		result, err := cfg.Limiter.Allow(c.Request.Context(), key)
		if err != nil {
			cfg.Logger.Warn("rate limiter unavailable",
				zap.String("request_id", reqID), zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header(RemainingHeader, strconv.FormatInt(result.Remaining, 10))
		if !result.Allowed {
			seconds := int64(math.Ceil(result.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header(RetryAfterHeader, strconv.FormatInt(seconds, 10))
			cfg.Logger.Debug("rate limit reached", zap.String("request_id", reqID), zap.String("key", key))
			resp.Error(c.Writer, http.StatusTooManyRequests, resp.CodeTooManyRequests,
				"too many requests", reqID, "")
			c.Abort()
			return
		}

		c.Next()
	}
}
