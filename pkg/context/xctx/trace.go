package xctx

import (
	"context"
	"sync/atomic"
)

// =============================================================================
// Trace 日志属性 Key 常量
// =============================================================================

// Trace Key 常量，遵循 OpenTelemetry 语义约定（下划线分隔）
const (
	KeyTraceID    = "trace_id"
	KeySpanID     = "span_id"
	KeyTraceFlags = "trace_flags"
)

// logFieldCount 日志字段数量（correlation + trace），用于 slog 属性预分配
const logFieldCount = 4

const (
	keyTraceID    = contextKey("xctx:trace_id")
	keySpanID     = contextKey("xctx:span_id")
	keyTraceFlags = contextKey("xctx:trace_flags")
)

// =============================================================================
// 单字段操作
// =============================================================================

// WithTraceID 将 trace ID 注入 context
//
// 通常由 xspan 在打开 span 时写入，业务代码很少需要直接调用。
// 如果 ctx 为 nil，返回 ErrNilContext。
func WithTraceID(ctx context.Context, traceID string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyTraceID, traceID), nil
}

// TraceID 从 context 提取 trace ID，不存在返回空字符串
func TraceID(ctx context.Context) string {
	if tr, ok := sourceTrace(ctx); ok {
		return tr.TraceID
	}
	return stringValue(ctx, keyTraceID)
}

// WithSpanID 将 span ID 注入 context
//
// 如果 ctx 为 nil，返回 ErrNilContext。
func WithSpanID(ctx context.Context, spanID string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keySpanID, spanID), nil
}

// SpanID 从 context 提取 span ID，不存在返回空字符串
func SpanID(ctx context.Context) string {
	if tr, ok := sourceTrace(ctx); ok {
		return tr.SpanID
	}
	return stringValue(ctx, keySpanID)
}

// WithTraceFlags 将 trace flags 注入 context
//
// 格式: 2 位十六进制字符串（"01" 表示已采样，"00" 表示未采样）。
// 如果 ctx 为 nil，返回 ErrNilContext。
func WithTraceFlags(ctx context.Context, flags string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyTraceFlags, flags), nil
}

// TraceFlags 从 context 提取 trace flags，不存在返回空字符串
func TraceFlags(ctx context.Context) string {
	if tr, ok := sourceTrace(ctx); ok {
		return tr.TraceFlags
	}
	return stringValue(ctx, keyTraceFlags)
}

// RequireTraceID 从 context 获取 trace ID，不存在则返回 ErrMissingTraceID。
func RequireTraceID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	if v := TraceID(ctx); v != "" {
		return v, nil
	}
	return "", ErrMissingTraceID
}

// RequireSpanID 从 context 获取 span ID，不存在则返回 ErrMissingSpanID。
func RequireSpanID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	if v := SpanID(ctx); v != "" {
		return v, nil
	}
	return "", ErrMissingSpanID
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// =============================================================================
// Trace 结构体（批量操作）
// =============================================================================

// Trace 追踪信息结构体
//
// 字段均为十六进制字符串，xctx 只负责存取，不校验格式。
type Trace struct {
	TraceID    string
	SpanID     string
	TraceFlags string
}

// GetTrace 从 context 批量获取追踪信息，字段可能为空字符串。
func GetTrace(ctx context.Context) Trace {
	if tr, ok := sourceTrace(ctx); ok {
		return tr
	}
	return Trace{
		TraceID:    TraceID(ctx),
		SpanID:     SpanID(ctx),
		TraceFlags: TraceFlags(ctx),
	}
}

// IsComplete TraceID 与 SpanID 都非空时返回 true。
// TraceFlags 是可选的采样决策字段，不参与检查。
func (t Trace) IsComplete() bool {
	return t.TraceID != "" && t.SpanID != ""
}

// Validate 按 TraceID → SpanID 顺序返回第一个缺失字段的哨兵错误。
func (t Trace) Validate() error {
	if t.TraceID == "" {
		return ErrMissingTraceID
	}
	if t.SpanID == "" {
		return ErrMissingSpanID
	}
	return nil
}

// WithTrace 将 Trace 中的字段批量写入 context。
//
// 与单字段函数不同，WithTrace 会覆盖全部三个字段：空字符串字段写入
// 清除标记，避免子 span 继承父 span 已经失效的 span_id。
// 如果 ctx 为 nil，返回 ErrNilContext。
func WithTrace(ctx context.Context, tr Trace) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	fields := [...]struct {
		key   contextKey
		value string
	}{
		{keyTraceID, tr.TraceID},
		{keySpanID, tr.SpanID},
		{keyTraceFlags, tr.TraceFlags},
	}
	for _, f := range fields {
		if f.value == "" {
			ctx = context.WithValue(ctx, f.key, cleared{})
			continue
		}
		ctx = context.WithValue(ctx, f.key, f.value)
	}
	return ctx, nil
}

// =============================================================================
// 动态来源
// =============================================================================

// TraceSource 根据 context 动态给出追踪信息，返回 false 时回退到静态写入的字段。
//
// xspan 注册的来源返回最内层尚未结束的 span，span 结束后日志字段随之回到上一层。
type TraceSource func(ctx context.Context) (Trace, bool)

var traceSource atomic.Pointer[TraceSource]

// SetTraceSource 注册动态追踪信息来源，优先于 WithTrace 等写入的静态字段。
// 传入 nil 取消注册。
func SetTraceSource(src TraceSource) {
	if src == nil {
		traceSource.Store(nil)
		return
	}
	traceSource.Store(&src)
}

func sourceTrace(ctx context.Context) (Trace, bool) {
	if ctx == nil {
		return Trace{}, false
	}
	if p := traceSource.Load(); p != nil {
		return (*p)(ctx)
	}
	return Trace{}, false
}
