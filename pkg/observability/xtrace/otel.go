package xtrace

import (
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// SpanContext 将 TraceContext 转换为 OpenTelemetry 远程 SpanContext。
//
// 上下文无效时返回零值 SpanContext（IsValid() 为 false）。
func (tc TraceContext) SpanContext() trace.SpanContext {
	if !tc.IsValid() {
		return trace.SpanContext{}
	}
	tid, err := trace.TraceIDFromHex(strings.ToLower(tc.TraceID))
	if err != nil {
		return trace.SpanContext{}
	}
	sid, err := trace.SpanIDFromHex(strings.ToLower(tc.SpanID))
	if err != nil {
		return trace.SpanContext{}
	}
	var flags trace.TraceFlags
	if tc.Sampled {
		flags = trace.FlagsSampled
	}
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: flags,
		Remote:     true,
	})
}

// FromSpanContext 将 OpenTelemetry SpanContext 转换为 TraceContext。
func FromSpanContext(sc trace.SpanContext) (TraceContext, bool) {
	if !sc.IsValid() {
		return TraceContext{}, false
	}
	return TraceContext{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
		Sampled: sc.IsSampled(),
	}, true
}
