package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout 为请求上下文设置截止时间
// 数据库、缓存与对象存储调用都携带该上下文，超时后由处理器写出统一的超时响应
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
