package xctx

import (
	"context"
	"log/slog"
)

// AppendLogAttrs 将 context 中的 correlation 与追踪信息追加到现有切片。
// 零分配热路径：传入预分配的切片，只追加非空字段。
func AppendLogAttrs(attrs []slog.Attr, ctx context.Context) []slog.Attr {
	if ctx == nil {
		return attrs
	}
	if v, ok := CorrelationID(ctx); ok {
		attrs = append(attrs, slog.String(KeyCorrelationID, v))
	}
	tr := GetTrace(ctx)
	if tr.TraceID != "" {
		attrs = append(attrs, slog.String(KeyTraceID, tr.TraceID))
	}
	if tr.SpanID != "" {
		attrs = append(attrs, slog.String(KeySpanID, tr.SpanID))
	}
	if tr.TraceFlags != "" {
		attrs = append(attrs, slog.String(KeyTraceFlags, tr.TraceFlags))
	}
	return attrs
}

// LogAttrs 从 context 提取 correlation 与追踪信息，转换为 slog.Attr 切片。
//
// 只返回非空字段，全部为空时返回 nil。
// 每次调用会分配新切片，热路径建议使用 AppendLogAttrs。
func LogAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs := AppendLogAttrs(make([]slog.Attr, 0, logFieldCount), ctx)
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
