// Package api 提供定制服务的 HTTP API 处理器
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/print_shop/internal/customization"
	"github.com/MorseWayne/print_shop/internal/middleware"
	"github.com/MorseWayne/print_shop/internal/resp"
	"github.com/MorseWayne/print_shop/internal/service"
)

// RejectionDetail 设计校验失败时返回给前端的定位信息
type RejectionDetail struct {
	Reason string `json:"reason"`
	Scope  string `json:"scope,omitempty"`
	AreaID string `json:"area_id,omitempty"`
}

// errorMapping 业务错误到 HTTP 状态与业务码的映射
type errorMapping struct {
	target error
	status int
	code   int
}

var errorMappings = []errorMapping{
	{service.ErrValidation, http.StatusBadRequest, resp.CodeInvalidParam},
	{service.ErrCustomizationSurface, http.StatusBadRequest, resp.CodeInvalidParam},

	{service.ErrProductNotFound, http.StatusNotFound, resp.CodeNotFound},
	{service.ErrSessionNotFound, http.StatusNotFound, resp.CodeNotFound},
	{service.ErrSurfaceNotFound, http.StatusNotFound, resp.CodeNotFound},
	{service.ErrVariantNotFound, http.StatusNotFound, resp.CodeNotFound},
	{customization.ErrSurfaceUnavailable, http.StatusNotFound, resp.CodeNotFound},

	{service.ErrSurfaceExists, http.StatusConflict, resp.CodeConflict},
	{service.ErrSurfaceConflict, http.StatusConflict, resp.CodeConflict},
	{service.ErrInsufficientStock, http.StatusConflict, resp.CodeConflict},
	{service.ErrProductUnavailable, http.StatusConflict, resp.CodeConflict},
	{customization.ErrOutOfStock, http.StatusConflict, resp.CodeConflict},
	{customization.ErrConfirmAreaSwitch, http.StatusConflict, resp.CodeConflict},
	{customization.ErrSessionFinalized, http.StatusConflict, resp.CodeConflict},
	{customization.ErrAttributeLocked, http.StatusConflict, resp.CodeConflict},
	{customization.ErrOptionUnavailable, http.StatusConflict, resp.CodeConflict},

	{service.ErrVariantUnavailable, http.StatusUnprocessableEntity, resp.CodeUnprocessable},
	{customization.ErrInvalidLockedVariant, http.StatusUnprocessableEntity, resp.CodeUnprocessable},
	{customization.ErrInvalidMatrix, http.StatusUnprocessableEntity, resp.CodeUnprocessable},
	{customization.ErrInvalidTransition, http.StatusUnprocessableEntity, resp.CodeUnprocessable},
	{customization.ErrUnknownScope, http.StatusUnprocessableEntity, resp.CodeUnprocessable},
	{customization.ErrVariantMismatch, http.StatusUnprocessableEntity, resp.CodeUnprocessable},
	{customization.ErrInvalidQuantity, http.StatusUnprocessableEntity, resp.CodeUnprocessable},
}

// writeServiceError 将服务层错误写成统一响应；未识别的错误按 500 处理并记录日志
func writeServiceError(c *gin.Context, logger *zap.Logger, op string, err error) {
	reqID := requestID(c)

	if rej, ok := customization.AsRejection(err); ok {
		detail := RejectionDetail{Reason: string(rej.Reason), Scope: rej.Scope, AreaID: rej.AreaID}
		resp.WriteJSON(c.Writer, http.StatusUnprocessableEntity, resp.CodeUnprocessable,
			rej.Error(), &detail, reqID, "")
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		logger.Warn(op+" timed out", zap.String("request_id", reqID), zap.Error(err))
		resp.Error(c.Writer, resp.HTTPStatusFromCode(resp.CodeTimeout), resp.CodeTimeout, "request timeout", reqID, "")
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			logger.Debug(op+" rejected", zap.String("request_id", reqID), zap.Error(err))
			resp.Error(c.Writer, m.status, m.code, err.Error(), reqID, "")
			return
		}
	}

	logger.Error(op+" failed", zap.String("request_id", reqID), zap.Error(err))
	resp.Error(c.Writer, http.StatusInternalServerError, resp.CodeInternalError, "internal server error", reqID, "")
}

// bindError 请求体解析失败
func bindError(c *gin.Context, logger *zap.Logger, err error) {
	reqID := requestID(c)
	logger.Warn("参数绑定失败", zap.String("request_id", reqID), zap.Error(err))
	resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, "invalid request body", reqID, "")
}

// requestID 获取请求ID；请求ID中间件包在 gin 引擎外层，写在请求上下文里
func requestID(c *gin.Context) string {
	if id := middleware.RequestIDFromContext(c.Request.Context()); id != "" {
		return id
	}
	return c.GetString("request_id")
}

// parseIDParam 解析路径中的正整数ID
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		resp.Error(c.Writer, http.StatusBadRequest, resp.CodeInvalidParam, "invalid "+name, requestID(c), "")
		return 0, false
	}
	return id, true
}
