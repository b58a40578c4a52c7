package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin 将标准库风格的中间件适配为 gin 中间件
// 内层 handler 未被调用时（中间件已写出响应）终止后续处理
func Gin(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.Abort()
		}
	}
}
