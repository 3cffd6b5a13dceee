package xspan

import (
	"context"
	"fmt"

	"github.com/omeyang/xcorr/pkg/observability/xtrace"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

const defaultInstrumentationName = "github.com/omeyang/xcorr/xspan"

// OTelObserver 把结束的 span 交给 OpenTelemetry SpanProcessor。
//
// 转换保留本包生成的 trace/span ID，因此导出后端看到的层级关系与
// 通过 traceparent 传播到下游的 ID 完全一致。
// 导出本身由调用方提供的 processor（通常是 BatchSpanProcessor）负责。
type OTelObserver struct {
	processor sdktrace.SpanProcessor
	scope     instrumentation.Scope
}

// OTelOption 定义 OTelObserver 的配置选项。
type OTelOption func(*OTelObserver)

// WithInstrumentationName 设置 instrumentation scope 名称，空字符串被忽略。
func WithInstrumentationName(name string) OTelOption {
	return func(o *OTelObserver) {
		if name != "" {
			o.scope.Name = name
		}
	}
}

// NewOTelObserver 创建 OTelObserver。processor 为 nil 时返回 ErrNilProcessor。
func NewOTelObserver(processor sdktrace.SpanProcessor, opts ...OTelOption) (*OTelObserver, error) {
	if processor == nil {
		return nil, ErrNilProcessor
	}
	o := &OTelObserver{
		processor: processor,
		scope:     instrumentation.Scope{Name: defaultInstrumentationName},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o, nil
}

// NewOTelExporterObserver 使用 BatchSpanProcessor 包装 exporter。
func NewOTelExporterObserver(exporter sdktrace.SpanExporter, opts ...OTelOption) (*OTelObserver, error) {
	if exporter == nil {
		return nil, ErrNilExporter
	}
	return NewOTelObserver(sdktrace.NewBatchSpanProcessor(exporter), opts...)
}

// OnStart 实现 Observer。导出只关心结束的 span。
func (o *OTelObserver) OnStart(*Span) {}

// OnStop 实现 Observer。
func (o *OTelObserver) OnStop(s *Span) {
	if s == nil {
		return
	}
	o.processor.OnEnd(o.snapshot(s))
}

// Shutdown 关闭底层 processor，刷出缓冲的 span。
func (o *OTelObserver) Shutdown(ctx context.Context) error {
	if err := o.processor.Shutdown(ctx); err != nil {
		return fmt.Errorf("xspan: shutdown span processor: %w", err)
	}
	return nil
}

// ForceFlush 立即导出缓冲的 span。
func (o *OTelObserver) ForceFlush(ctx context.Context) error {
	return o.processor.ForceFlush(ctx)
}

func (o *OTelObserver) snapshot(s *Span) sdktrace.ReadOnlySpan {
	tc := s.Context()

	self := tc.SpanContext()
	// 本地 span 不是远程上下文
	self = self.WithRemote(false)

	var parent trace.SpanContext
	if !tc.IsRoot() {
		parent = xtrace.TraceContext{TraceID: tc.TraceID, SpanID: tc.ParentSpanID, Sampled: tc.Sampled}.SpanContext()
		if s.Parent() != nil {
			parent = parent.WithRemote(false)
		}
	}

	tags := s.Tags()
	attrs := make([]attribute.KeyValue, 0, len(tags))
	for k, v := range tags {
		attrs = append(attrs, attribute.String(k, v))
	}

	status, msg := s.Status()
	stub := tracetest.SpanStub{
		Name:                 s.Name(),
		SpanContext:          self,
		Parent:               parent,
		SpanKind:             otelKind(s.Kind()),
		StartTime:            s.StartTime(),
		EndTime:              s.EndTime(),
		Attributes:           attrs,
		InstrumentationScope: o.scope,
	}
	if status == StatusError {
		stub.Status = sdktrace.Status{Code: codes.Error, Description: msg}
	}
	return stub.Snapshot()
}

func otelKind(k Kind) trace.SpanKind {
	switch k {
	case KindServer:
		return trace.SpanKindServer
	case KindClient:
		return trace.SpanKindClient
	case KindProducer:
		return trace.SpanKindProducer
	case KindConsumer:
		return trace.SpanKindConsumer
	default:
		return trace.SpanKindInternal
	}
}
