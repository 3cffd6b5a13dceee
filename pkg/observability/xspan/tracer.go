package xspan

import (
	"context"
	"time"

	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

// Tracer 负责 span 的创建。
//
// 零值不可用，使用 NewTracer 构造。Tracer 本身不保存可变状态，可并发使用。
type Tracer struct {
	enabled  func() bool
	registry *Registry
	clock    func() time.Time
}

// Option 定义 Tracer 的配置选项。
type Option func(*Tracer)

// WithEnabled 设置 span 创建开关。
//
// 每次 Start 都会调用 fn，因此可以接入热更新的配置快照。
// nil 被忽略（保持默认开启）。
func WithEnabled(fn func() bool) Option {
	return func(t *Tracer) {
		if fn != nil {
			t.enabled = fn
		}
	}
}

// WithRegistry 使用指定的观察者注册表，默认 DefaultRegistry()。
func WithRegistry(r *Registry) Option {
	return func(t *Tracer) {
		if r != nil {
			t.registry = r
		}
	}
}

// WithClock 替换时钟，主要用于测试。
func WithClock(now func() time.Time) Option {
	return func(t *Tracer) {
		if now != nil {
			t.clock = now
		}
	}
}

// NewTracer 创建 Tracer。
func NewTracer(opts ...Option) *Tracer {
	t := &Tracer{
		enabled:  func() bool { return true },
		registry: defaultRegistry,
		clock:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func (t *Tracer) now() time.Time {
	if t == nil || t.clock == nil {
		return time.Now()
	}
	return t.clock()
}

// Enabled 当前是否会创建 span（开关打开且至少有一个观察者）。
func (t *Tracer) Enabled() bool {
	return t != nil && t.enabled() && t.registry.HasObservers()
}

// Start 打开一个 span 并返回携带它的 context。
//
// 父级解析顺序：
//  1. parent 为 W3C 变体：作为远程父级（新 span 与其同 trace，ParentSpanID 为其 SpanID）
//  2. ctx 中存在未结束的 span：作为本地父级
//  3. ctx 中存在 W3C 远程父级（WithRemoteParent）
//  4. 否则为根 span；parent 为 Legacy 变体时同样作为根，并记录 legacy.parent_id
//
// 开关关闭或没有观察者时返回 (ctx, nil)，不分配任何对象。
// 调用方必须在所有退出路径上调用 Stop：
//
//	ctx, span := tracer.Start(ctx, "GET /orders", xspan.KindServer, parent)
//	defer span.Stop()
func (t *Tracer) Start(ctx context.Context, name string, kind Kind, parent xtrace.Parent) (context.Context, *Span) {
	if !t.Enabled() {
		return ctx, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s := &Span{
		tracer:    t,
		observers: t.registry.Observers(),
		name:      name,
		kind:      kind,
		start:     t.now(),
	}

	local := Current(ctx)
	switch {
	case parent.Kind() == xtrace.ParentW3C:
		p, _ := parent.W3C()
		s.tc = childOf(p)
	case local != nil:
		s.parent = local
		s.tc = childOf(local.Context())
	default:
		if remote, ok := RemoteParent(ctx).W3C(); ok {
			s.tc = childOf(remote)
		} else {
			s.tc = xtrace.TraceContext{TraceID: xtrace.NewTraceID(), SpanID: xtrace.NewSpanID(), Sampled: true}
		}
	}
	if legacy, ok := parent.Legacy(); ok {
		s.tags = map[string]string{TagLegacyParentID: legacy}
	}

	ctx = ContextWithSpan(ctx, s)
	for _, o := range s.observers {
		o.OnStart(s)
	}
	return ctx, s
}

func childOf(p xtrace.TraceContext) xtrace.TraceContext {
	return xtrace.TraceContext{
		TraceID:      p.TraceID,
		SpanID:       xtrace.NewSpanID(),
		ParentSpanID: p.SpanID,
		Sampled:      p.Sampled,
	}
}
