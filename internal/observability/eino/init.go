// Package eino 注册 eino ChatModel 的全局回调，输出追踪与 token 指标
package eino

import (
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"screen-dev-assistant/internal/config"
)

var initOnce sync.Once

// Options 控制回调输出哪些信号
type Options struct {
	Tracing bool
	Metrics bool
}

// OptionsFromConfig 跟随全局追踪与指标开关
func OptionsFromConfig(cfg config.ObservabilityConfig) Options {
	return Options{
		Tracing: cfg.Tracing.Enabled,
		Metrics: cfg.Metrics.Enabled,
	}
}

// Init 注册全局 callbacks，进程内只生效一次；两个信号都关闭时不注册
func Init(opts Options) {
	initOnce.Do(func() {
		if !opts.Tracing && !opts.Metrics {
			return
		}
		var tr trace.Tracer = noop.NewTracerProvider().Tracer("eino")
		if opts.Tracing {
			tr = otel.Tracer("eino")
		}
		handler := cbtemplate.NewHandlerHelper().
			ChatModel(newChatModelCallbackHandler(tr, opts.Metrics)).
			Handler()
		einocallbacks.AppendGlobalHandlers(handler)
	})
}
