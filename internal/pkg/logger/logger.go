// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// base 是全局的根 logger，由 Init 初始化
var base zerolog.Logger

func init() {
	// 在 Init 被调用之前也能安全使用
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Init 初始化服务级别的根 logger，所有日志都会带上 service 字段
func Init(serviceName string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	base = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Logger 返回全局根 logger
func Logger() *zerolog.Logger {
	return &base
}

// Ctx 返回一个绑定了追踪上下文的 logger。
// 如果 ctx 中存在有效的 Span，日志会自动携带 trace_id / span_id，
// 便于在日志系统中与 Jaeger 链路互相跳转。
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
