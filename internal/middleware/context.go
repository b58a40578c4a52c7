// Package middleware 提供 HTTP 中间件：请求 ID、恢复、超时、CORS、访问日志、认证与幂等。
package middleware

import (
	"context"

	"github.com/MorseWayne/print_shop/internal/domain"
)

type contextKey string

const (
	contextKeyRequestID contextKey = "request_id"
	contextKeyOperator  contextKey = "operator"
)

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// RequestIDFromContext 读取请求 ID，未经过 RequestID 中间件时为空
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

func withOperator(ctx context.Context, operator *domain.Operator) context.Context {
	return context.WithValue(ctx, contextKeyOperator, operator)
}

// OperatorFromContext 从请求上下文中获取当前操作者
func OperatorFromContext(ctx context.Context) *domain.Operator {
	operator, _ := ctx.Value(contextKeyOperator).(*domain.Operator)
	return operator
}
