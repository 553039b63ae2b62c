// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// base 是进程级的根 Logger，由 Init 在启动时构造
var base = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init 初始化全局日志器，附带服务名字段
// 必须在读取配置之后、业务组件启动之前调用
func Init(serviceName string) {
	zerolog.TimeFieldFormat = time.RFC3339
	base = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Logger 返回根 Logger，用于没有请求上下文的场景（启动、关停）
func Logger() *zerolog.Logger {
	return &base
}

// Ctx 返回一个携带追踪信息的 Logger
// 如果上下文中存在有效的 Span，会自动附加 trace_id/span_id 字段，
// 便于日志与 Jaeger 链路相互关联
func Ctx(ctx context.Context) *zerolog.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return &base
	}
	l := base.With().
		Str("trace_id", spanCtx.TraceID().String()).
		Str("span_id", spanCtx.SpanID().String()).
		Logger()
	return &l
}
