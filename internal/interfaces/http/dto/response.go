// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "screen-dev-assistant/pkg/errors"
)

// Response 统一响应结构
type Response[T any] struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Data    T         `json:"data,omitempty"`
	Meta    *PageMeta `json:"meta,omitempty"`
	TraceID string    `json:"trace_id,omitempty"`
}

// PageMeta 分页元数据
type PageMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ErrorDetail 错误详情，error_code 取自 pkg/errors 的错误码
type ErrorDetail struct {
	ErrorCode string `json:"error_code,omitempty"`
	Details   string `json:"details,omitempty"`
}

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

func respond[T any](c *gin.Context, status int, message string, data T, meta *PageMeta) {
	c.JSON(status, Response[T]{
		Code:    status,
		Message: message,
		Data:    data,
		Meta:    meta,
		TraceID: c.GetString("trace_id"),
	})
}

func errorBody(c *gin.Context, status int, message string, detail *ErrorDetail) ErrorResponse {
	return ErrorResponse{
		Code:    status,
		Message: message,
		Error:   detail,
		TraceID: c.GetString("trace_id"),
	}
}

// Success 返回成功响应
func Success[T any](c *gin.Context, data T) {
	respond(c, http.StatusOK, "success", data, nil)
}

// SuccessWithPage 返回带分页的成功响应
func SuccessWithPage[T any](c *gin.Context, data T, meta *PageMeta) {
	respond(c, http.StatusOK, "success", data, meta)
}

// Created 返回创建成功响应 (201)
func Created[T any](c *gin.Context, data T) {
	respond(c, http.StatusCreated, "created", data, nil)
}

// Accepted 返回接受处理响应 (202)，用于已排队或已在后台启动的生成
func Accepted[T any](c *gin.Context, data T) {
	respond(c, http.StatusAccepted, "accepted", data, nil)
}

// NoContent 返回无内容响应 (204)
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// ErrorWithDetail 返回带详情的错误响应
func ErrorWithDetail(c *gin.Context, status int, message string, detail *ErrorDetail) {
	c.JSON(status, errorBody(c, status, message, detail))
}

// Abort 中断处理链并写出带错误码的错误响应，供中间件使用
func Abort(c *gin.Context, status int, code apperrors.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, errorBody(c, status, message, &ErrorDetail{ErrorCode: string(code)}))
}

// BadRequest 返回 400 错误
func BadRequest(c *gin.Context, message string) {
	ErrorWithDetail(c, http.StatusBadRequest, message, &ErrorDetail{ErrorCode: string(apperrors.CodeInvalidParam)})
}

// NotFound 返回 404 错误
func NotFound(c *gin.Context, message string) {
	ErrorWithDetail(c, http.StatusNotFound, message, &ErrorDetail{ErrorCode: string(apperrors.CodeNotFound)})
}

// InternalError 返回 500 错误
func InternalError(c *gin.Context, message string) {
	ErrorWithDetail(c, http.StatusInternalServerError, message, &ErrorDetail{ErrorCode: string(apperrors.CodeInternalError)})
}

// ServiceUnavailable 返回 503 错误
func ServiceUnavailable(c *gin.Context, message string) {
	ErrorWithDetail(c, http.StatusServiceUnavailable, message, &ErrorDetail{ErrorCode: string(apperrors.CodeServiceUnavailable)})
}
