package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/cache"
	"github.com/MorseWayne/print_shop/internal/resp"
)

// HeaderIdempotencyKey 幂等键请求头
const HeaderIdempotencyKey = "X-Idempotency-Key"

// HeaderIdempotentReplay 标记响应来自幂等缓存
const HeaderIdempotentReplay = "X-Idempotent-Replay"

// IdempotencyConfig 幂等性中间件配置
type IdempotencyConfig struct {
	// 幂等键头名称
	Header string

	// 已完成请求的响应保留时长
	TTL time.Duration

	// 处理中占位的保留时长，防止进程崩溃后键永久被占用
	InFlightTTL time.Duration
}

// DefaultIdempotencyConfig 默认幂等性配置
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		Header:      HeaderIdempotencyKey,
		TTL:         24 * time.Hour,
		InFlightTTL: time.Minute,
	}
}

// idempotencyRecord 缓存中的幂等记录；Done 为 false 表示请求仍在处理
type idempotencyRecord struct {
	Done   bool   `json:"done"`
	Status int    `json:"status"`
	Body   []byte `json:"body,omitempty"`
}

// bodyRecorder 在写出响应的同时保留一份响应体
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency 基于缓存的幂等性中间件
// 携带幂等键的写请求只执行一次：重复请求直接回放首次的响应，
// 首次请求仍在处理时返回 409。未携带幂等键的请求照常处理。
func Idempotency(store cache.Cache, cfg IdempotencyConfig, logger *zap.Logger) gin.HandlerFunc {
	if cfg.Header == "" {
		cfg.Header = HeaderIdempotencyKey
	}
	if cfg.InFlightTTL <= 0 {
		cfg.InFlightTTL = time.Minute
	}

	return func(c *gin.Context) {
		key := c.GetHeader(cfg.Header)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		reqID := RequestIDFromContext(ctx)
		cacheKey := cache.IdempotencyKey(c.Request.Method+" "+c.Request.URL.Path, key)

		var record idempotencyRecord
		err := store.Get(ctx, cacheKey, &record)
		switch {
		case err == nil && record.Done:
			c.Header(HeaderIdempotentReplay, "true")
			c.Data(record.Status, "application/json; charset=utf-8", record.Body)
			c.Abort()
			return
		case err != nil && !errors.Is(err, cache.ErrCacheMiss):
			// 缓存不可用时不阻断业务
			logger.Warn("idempotency lookup failed", zap.String("request_id", reqID), zap.Error(err))
			c.Next()
			return
		}

		acquired, err := store.SetNX(ctx, cacheKey, idempotencyRecord{}, cfg.InFlightTTL)
		if err != nil {
			logger.Warn("idempotency lock failed", zap.String("request_id", reqID), zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			resp.Error(c.Writer, http.StatusConflict, resp.CodeConflict, "duplicate request in progress", reqID, "")
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		// 请求上下文可能已因超时取消，收尾写入不受其影响
		ctx = context.WithoutCancel(ctx)

		// 服务端错误与超时允许客户端用同一个键重试
		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Del(ctx, cacheKey); err != nil {
				logger.Warn("idempotency release failed", zap.String("request_id", reqID), zap.Error(err))
			}
			return
		}

		done := idempotencyRecord{Done: true, Status: status, Body: recorder.body.Bytes()}
		if err := store.Set(ctx, cacheKey, done, cfg.TTL); err != nil {
			logger.Warn("idempotency store failed", zap.String("request_id", reqID), zap.Error(err))
		}
	}
}
