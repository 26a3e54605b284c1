// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 资源错误 (3xxx)
	CodeScreenNotFound      ErrorCode = "3001"
	CodeRequirementNotFound ErrorCode = "3002"
	CodeJobNotFound         ErrorCode = "3003"
	CodeTestRunNotFound     ErrorCode = "3004"

	// 业务错误 (4xxx)
	CodeGenerationFailed     ErrorCode = "4001"
	CodeGenerationInProgress ErrorCode = "4003"
	CodeMissingDesign        ErrorCode = "4004"
	CodeJobNotCancellable    ErrorCode = "4005"

	// 外部服务错误 (5xxx)
	CodeDatabaseError     ErrorCode = "5001"
	CodeQueueError        ErrorCode = "5003"
	CodeDesignFetchFailed ErrorCode = "5004"
	CodeLLMProviderError  ErrorCode = "5005"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码匹配，使副本与预定义错误视为同一种错误
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithDetail 添加详细信息，返回副本以免污染预定义错误
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeInvalidParam:
		return http.StatusBadRequest
	case CodeNotFound, CodeScreenNotFound, CodeRequirementNotFound, CodeJobNotFound, CodeTestRunNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeGenerationInProgress, CodeJobNotCancellable:
		return http.StatusConflict
	case CodeMissingDesign:
		return http.StatusUnprocessableEntity
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeDesignFetchFailed, CodeLLMProviderError:
		return http.StatusBadGateway
	case CodeServiceUnavailable, CodeQueueError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrConflict           = New(CodeConflict, "resource conflict")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrScreenNotFound      = New(CodeScreenNotFound, "screen not found")
	ErrRequirementNotFound = New(CodeRequirementNotFound, "requirement not found")
	ErrJobNotFound         = New(CodeJobNotFound, "job not found")
	ErrTestRunNotFound     = New(CodeTestRunNotFound, "test run not found")

	ErrGenerationFailed     = New(CodeGenerationFailed, "code generation failed")
	ErrGenerationInProgress = New(CodeGenerationInProgress, "code generation already in progress")
	ErrMissingDesign        = New(CodeMissingDesign, "screen has no design reference")
	ErrJobNotCancellable    = New(CodeJobNotCancellable, "job can no longer be cancelled")
	ErrDesignFetchFailed    = New(CodeDesignFetchFailed, "design fetch failed")
	ErrQueueUnavailable     = New(CodeQueueError, "job queue unavailable")
)

// IsAppError 检查错误链中是否包含 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
