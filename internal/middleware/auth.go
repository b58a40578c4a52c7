package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/domain"
	"github.com/MorseWayne/print_shop/internal/resp"
	"github.com/MorseWayne/print_shop/internal/service"
)

// AuthMiddleware JWT认证中间件
// 验证请求头中的访问令牌，并将操作者信息注入到请求上下文中
func AuthMiddleware(jwtService service.JWTService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromContext(r.Context())

			// 从Authorization头中提取令牌
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("missing authorization header", zap.String("request_id", reqID))
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "authorization header required", reqID, "")
				return
			}

			// 检查Bearer前缀
			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				logger.Warn("invalid authorization header format", zap.String("request_id", reqID))
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "invalid authorization header format", reqID, "")
				return
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
			if tokenString == "" {
				logger.Warn("empty token", zap.String("request_id", reqID))
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "token required", reqID, "")
				return
			}

			operator, err := jwtService.ValidateAccessToken(tokenString)
			if err != nil {
				logger.Warn("token validation failed",
					zap.String("request_id", reqID),
					zap.Error(err),
				)

				// 根据错误类型返回不同的响应
				switch {
				case errors.Is(err, service.ErrTokenExpired):
					resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "token expired", reqID, "")
				case errors.Is(err, service.ErrTokenNotReady):
					resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "token not ready", reqID, "")
				default:
					resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "invalid token", reqID, "")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(withOperator(r.Context(), operator)))
		})
	}
}

// RequireRole 角色授权中间件
// 要求操作者具有指定角色才能访问受保护的资源
func RequireRole(requiredRole domain.OperatorRole, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromContext(r.Context())
			operator := OperatorFromContext(r.Context())

			// 应该由AuthMiddleware确保
			if operator == nil {
				logger.Error("operator not found in context", zap.String("request_id", reqID))
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "authentication required", reqID, "")
				return
			}

			if operator.Role != requiredRole {
				logger.Warn("insufficient permissions",
					zap.String("request_id", reqID),
					zap.Int64("operator_id", operator.ID),
					zap.String("operator_role", string(operator.Role)),
					zap.String("required_role", string(requiredRole)),
				)
				resp.Error(w, http.StatusForbidden, resp.CodeForbidden, "insufficient permissions", reqID, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin 管理员权限中间件
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(domain.OperatorRoleAdmin, logger)
}
