package codegen

import (
	"errors"
	"fmt"
)

// ErrorKind 流程错误分类
type ErrorKind string

const (
	KindMissingReference      ErrorKind = "missing_reference"
	KindResolution            ErrorKind = "resolution"
	KindNotFound              ErrorKind = "not_found"
	KindUnexpectedContentType ErrorKind = "unexpected_content_type"
	KindTransport             ErrorKind = "transport"
	KindAuthentication        ErrorKind = "authentication"
	KindMalformedResponse     ErrorKind = "malformed_response"
	KindTimeout               ErrorKind = "timeout"
	KindCancelled             ErrorKind = "cancelled"
	KindInternal              ErrorKind = "internal"
)

// Stage 流程阶段
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageAssemble Stage = "assemble"
	StageGenerate Stage = "generate"
)

// Error 流程错误
type Error struct {
	Kind       ErrorKind
	Stage      Stage
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.describe())
	}
	return e.describe()
}

// describe 不带阶段前缀的错误描述
func (e *Error) describe() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 与同类哨兵错误匹配：哨兵没有 Message 时只比较 Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// 哨兵错误，配合 errors.Is 使用
var (
	ErrMissingReference      = &Error{Kind: KindMissingReference}
	ErrResolution            = &Error{Kind: KindResolution}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrUnexpectedContentType = &Error{Kind: KindUnexpectedContentType}
	ErrTransport             = &Error{Kind: KindTransport}
	ErrAuthentication        = &Error{Kind: KindAuthentication}
	ErrMalformedResponse     = &Error{Kind: KindMalformedResponse}
	ErrTimeout               = &Error{Kind: KindTimeout}
	ErrCancelled             = &Error{Kind: KindCancelled}
)

// ErrAttemptInFlight 非终态下再次触发
var ErrAttemptInFlight = errors.New("generation attempt already in flight")

// MissingReferenceError 设计引用缺失
func MissingReferenceError(ref DesignReference) error {
	return &Error{
		Kind:    KindMissingReference,
		Stage:   StageFetch,
		Message: fmt.Sprintf("design reference incomplete (file=%q node=%q)", ref.FileID, ref.NodeID),
	}
}

// ResolutionError 渲染服务返回错误
func ResolutionError(msg string) error {
	return &Error{Kind: KindResolution, Stage: StageFetch, Message: msg}
}

// NotFoundError 节点没有可用的渲染地址
func NotFoundError(nodeID string) error {
	return &Error{Kind: KindNotFound, Stage: StageFetch, Message: fmt.Sprintf("no render for node %s", nodeID)}
}

// UnexpectedContentTypeError 下载内容不是图片
func UnexpectedContentTypeError(contentType string) error {
	return &Error{Kind: KindUnexpectedContentType, Stage: StageFetch, Message: fmt.Sprintf("unexpected content type %q", contentType)}
}

// TransportError 网络失败或非 2xx 响应
func TransportError(stage Stage, status int, msg string, err error) error {
	if msg == "" {
		msg = "request failed"
	}
	return &Error{Kind: KindTransport, Stage: stage, Message: msg, StatusCode: status, Err: err}
}

// AuthenticationError 凭证缺失或被拒绝
func AuthenticationError(status int, msg string) error {
	if msg == "" {
		msg = "authentication failed"
	}
	return &Error{Kind: KindAuthentication, Stage: StageGenerate, Message: msg, StatusCode: status}
}

// MalformedResponseError 响应缺少预期字段
func MalformedResponseError(msg string) error {
	return &Error{Kind: KindMalformedResponse, Stage: StageGenerate, Message: msg}
}

// TimeoutError 阶段超时
func TimeoutError(stage Stage, err error) error {
	return &Error{Kind: KindTimeout, Stage: stage, Message: "stage deadline exceeded", Err: err}
}

// CancelledError 尝试被取消
func CancelledError(stage Stage, err error) error {
	return &Error{Kind: KindCancelled, Stage: stage, Message: "attempt cancelled", Err: err}
}

// ReasonOf 返回失败原因，阶段由 StageOf 单独给出
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.describe()
	}
	return err.Error()
}

// KindOf 提取错误分类，非流程错误归为 internal
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StageOf 提取错误所在阶段
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}
