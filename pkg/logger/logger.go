// Package logger 提供结构化日志功能
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// ContextKey 用于从 context 中提取值的键类型
type ContextKey string

// 预定义的 context 键
const (
	TraceIDKey   ContextKey = "trace_id"
	SpanIDKey    ContextKey = "span_id"
	RequestIDKey ContextKey = "request_id"
	ScreenIDKey  ContextKey = "screen_id"
	JobIDKey     ContextKey = "job_id"
)

// contextKeys 决定 FromContext 附加字段的顺序
var contextKeys = []ContextKey{TraceIDKey, SpanIDKey, RequestIDKey, ScreenIDKey, JobIDKey}

// redactedKeys 日志中只输出占位符的字段
var redactedKeys = map[string]bool{
	"api_key":       true,
	"token":         true,
	"figma_token":   true,
	"authorization": true,
	"password":      true,
}

const redacted = "[REDACTED]"

var (
	defaultLogger *slog.Logger
	level         = new(slog.LevelVar)
	initOnce      sync.Once
)

// Init 初始化日志器，输出到标准输出
func Init(lvl string, format string) {
	InitWithWriter(os.Stdout, lvl, format)
}

// InitWithWriter 初始化日志器并指定输出目标
func InitWithWriter(w io.Writer, lvl string, format string) {
	level.Set(parseLevel(lvl))
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   true,
		ReplaceAttr: redact,
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// SetLevel 运行期调整日志级别，不重建 handler
func SetLevel(lvl string) {
	level.Set(parseLevel(lvl))
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if redactedKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}
	return a
}

// parseLevel 解析日志级别字符串
func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default 返回默认日志器，未初始化时使用 info 级别的 JSON 输出
func Default() *slog.Logger {
	initOnce.Do(func() {
		if defaultLogger == nil {
			Init("info", "json")
		}
	})
	return defaultLogger
}

// FromContext 附加 context 中的请求、屏幕、任务标识。
// 没有显式 trace_id 时从当前 span 读取，worker 中的日志因此也能关联到链路。
func FromContext(ctx context.Context) *slog.Logger {
	l := Default()
	for _, key := range contextKeys {
		if v := ctx.Value(key); v != nil {
			l = l.With(string(key), v)
		}
	}
	if ctx.Value(TraceIDKey) == nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			l = l.With(string(TraceIDKey), sc.TraceID().String())
		}
	}
	return l
}

// WithContext 将日志上下文信息注入到 context
func WithContext(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

// Info 记录 INFO 级别日志
func Info(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

// Debug 记录 DEBUG 级别日志
func Debug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

// Warn 记录 WARN 级别日志
func Warn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

// Error 记录 ERROR 级别日志
func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	FromContext(ctx).Error(msg, args...)
}

// Fatal 记录 Fatal 级别日志并退出
func Fatal(ctx context.Context, msg string, err error, args ...any) {
	Error(ctx, msg, err, args...)
	os.Exit(1)
}
