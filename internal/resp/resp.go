// Package resp 定义统一的 JSON 响应结构与写出方法。
package resp

import (
	"encoding/json"
	"net/http"
)

// 业务码：前三位与 HTTP 状态码对应，便于 HTTPStatusFromCode 推导
const (
	CodeOK              = 0
	CodeInvalidParam    = 40000
	CodeUnauthorized    = 40100
	CodeForbidden       = 40300
	CodeNotFound        = 40400
	CodeConflict        = 40900
	CodeUnprocessable   = 42200
	CodeTooManyRequests = 42900
	CodeInternalError   = 50000
	CodeTimeout         = 50400
)

// Response 统一响应包
type Response[T any] struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      *T     `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// WriteJSON 写出统一格式的 JSON 响应
func WriteJSON[T any](w http.ResponseWriter, status, code int, message string, data *T, requestID, traceID string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response[T]{
		Code:      code,
		Message:   message,
		Data:      data,
		RequestID: requestID,
		TraceID:   traceID,
	})
}

// OK 写出成功响应
func OK[T any](w http.ResponseWriter, data *T, requestID, traceID string) {
	WriteJSON(w, http.StatusOK, CodeOK, "success", data, requestID, traceID)
}

// Error 写出错误响应（无数据体）
func Error(w http.ResponseWriter, status, code int, message, requestID, traceID string) {
	WriteJSON[any](w, status, code, message, nil, requestID, traceID)
}

// HTTPStatusFromCode 由业务码推导 HTTP 状态码
func HTTPStatusFromCode(code int) int {
	if code == CodeOK {
		return http.StatusOK
	}
	status := code / 100
	if status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}
