package xprop

import (
	"context"
	"fmt"

	"github.com/omeyang/xcorr/pkg/context/xctx"
	"github.com/omeyang/xcorr/pkg/correlation/xcid"
	"github.com/omeyang/xcorr/pkg/observability/xlog"
	"github.com/omeyang/xcorr/pkg/observability/xspan"
	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

// Propagator 入站决策与出站注入的入口。
//
// 构造后不可变，可在多个 goroutine 间共享。
type Propagator struct {
	fixed    *Options // 非 nil 时使用固定快照，否则每次请求读取全局默认值
	gen      xcid.Generator
	tracer   *xspan.Tracer
	resolver NameResolver
	logger   xlog.Logger
}

// Option 配置 Propagator。
type Option func(*Propagator)

// WithOptions 固定使用 o，不再跟随全局默认值变化。
func WithOptions(o Options) Option {
	return func(p *Propagator) {
		p.fixed = &o
	}
}

// WithGenerator 替换 correlation id 生成器，默认 UUID。
func WithGenerator(g xcid.Generator) Option {
	return func(p *Propagator) {
		p.gen = g
	}
}

// WithTracer 替换 span 创建器，默认使用全局观察者注册表。
func WithTracer(t *xspan.Tracer) Option {
	return func(p *Propagator) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithNameResolver 设置 HTTP 入站 span 的展示名解析器。
func WithNameResolver(r NameResolver) Option {
	return func(p *Propagator) {
		if r != nil {
			p.resolver = r
		}
	}
}

// WithLogger 设置诊断日志输出，默认 xlog.Default()。
func WithLogger(l xlog.Logger) Option {
	return func(p *Propagator) {
		if l != nil {
			p.logger = l
		}
	}
}

// New 创建 Propagator。
//
// WithOptions 传入的配置非法或显式传入 nil 生成器时返回错误。
func New(opts ...Option) (*Propagator, error) {
	p := &Propagator{
		gen:      xcid.UUIDGenerator{},
		resolver: NoopResolver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.gen == nil {
		return nil, ErrNilGenerator
	}
	if p.fixed != nil {
		if err := p.fixed.Validate(); err != nil {
			return nil, fmt.Errorf("xprop: invalid options: %w", err)
		}
	}
	if p.tracer == nil {
		p.tracer = xspan.NewTracer()
	}
	if p.logger == nil {
		p.logger = xlog.Default()
	}
	return p, nil
}

// Options 返回本次请求应使用的配置快照。
func (p *Propagator) Options() Options {
	if p.fixed != nil {
		return *p.fixed
	}
	return DefaultOptionsSnapshot()
}

// =============================================================================
// 入站
// =============================================================================

// inbound 入站处理的中间结果，供各传输层拦截器使用。
type inbound struct {
	ctx      context.Context
	span     *xspan.Span
	decision Decision
	opts     Options
}

// Begin 入站处理的通用入口：读取 carrier、决策、写入 context 并打开服务端 span。
//
// 返回的 span 可能为 nil（未开启创建或没有观察者），其方法均可安全调用；
// 调用方必须在所有退出路径上调用 span.Stop()。
func (p *Propagator) Begin(ctx context.Context, c xtrace.Carrier, name string) (context.Context, *xspan.Span, Decision) {
	in := p.begin(ctx, c, name, xspan.KindServer)
	return in.ctx, in.span, in.decision
}

func (p *Propagator) begin(ctx context.Context, c xtrace.Carrier, name string, kind xspan.Kind) inbound {
	if ctx == nil {
		ctx = context.Background()
	}
	o := p.Options()

	header, hasHeader := xtrace.Extract(c, o.HeaderName)
	ambient, hasAmbient := xctx.CorrelationID(ctx)
	traceparent, _ := xtrace.Extract(c, xtrace.HeaderTraceparent)
	var legacy string
	if o.LegacyHeaderName != "" {
		legacy, _ = xtrace.Extract(c, o.LegacyHeaderName)
	}

	d := DecideInbound(Inbound{
		Header:          header,
		HasHeader:       hasHeader,
		Ambient:         ambient,
		HasAmbient:      hasAmbient,
		Traceparent:     traceparent,
		LegacyRequestID: legacy,
	}, o, xcid.Validator{Strict: o.ValidateFormat}, p.gen)

	ctx, _ = xctx.WithCorrelationID(ctx, d.CorrelationID) //nolint:errcheck // ctx 非 nil 且 id 非空
	ctx = xspan.WithRemoteParent(ctx, d.Parent)

	if hasHeader && d.Source != SourceHeader {
		p.logger.Debug(ctx, "inbound correlation id rejected",
			xlog.Source(d.Source.String()), xlog.Operation(name))
	}

	var span *xspan.Span
	if o.SpanCreationEnabled {
		ctx, span = p.tracer.Start(ctx, name, kind, d.Parent)
		span.AddTag(xspan.TagCorrelationID, d.CorrelationID)
	}
	return inbound{ctx: ctx, span: span, decision: d, opts: o}
}

// =============================================================================
// 出站
// =============================================================================

// Inject 将 ctx 中的关联信息写入出站 carrier。
//
// 只读取，不会生成 correlation id 也不会创建 span：
//   - correlation id 存在时 Set 到关联头（替换已有值）；
//     值无法由该 carrier 承载时（如含 CR/LF）删除关联头并记录 Debug 日志，不影响调用本身
//   - 当前追踪上下文为 W3C 时 Set traceparent，否则删除残留的 traceparent
//
// 旧版层级 ID 与 tracestate 永远不会被写出。
func (p *Propagator) Inject(ctx context.Context, c xtrace.Carrier) {
	if ctx == nil || c == nil {
		return
	}
	o := p.Options()
	if id, ok := xctx.CorrelationID(ctx); ok {
		if xtrace.CanCarry(c, o.HeaderName, id) {
			c.Set(o.HeaderName, id)
		} else {
			c.Del(o.HeaderName)
			p.logger.Debug(ctx, "correlation id not representable in carrier, header skipped",
				slogHeader(o.HeaderName))
		}
	}
	if tp := xspan.CurrentContext(ctx).Traceparent(); tp != "" {
		c.Set(xtrace.HeaderTraceparent, tp)
	} else {
		c.Del(xtrace.HeaderTraceparent)
	}
}

// startClient 为出站调用打开客户端 span（未开启时返回 nil span）。
func (p *Propagator) startClient(ctx context.Context, name string, kind xspan.Kind) (context.Context, *xspan.Span) {
	if !p.Options().SpanCreationEnabled {
		return ctx, nil
	}
	return p.tracer.Start(ctx, name, kind, xtrace.NoParent())
}

// Detach 为独立运行的后台任务构造 context。
//
// 不继承取消信号、当前 span 与远程父级（后台任务的 span 成为新的根），
// 但沿用原请求的 correlation id，便于日志关联。
func Detach(ctx context.Context) context.Context {
	id, ok := xctx.CorrelationID(ctx)
	out := xspan.Detach(ctx)
	if ok {
		out, _ = xctx.WithCorrelationID(out, id) //nolint:errcheck // out 非 nil 且 id 非空
	}
	return out
}

// echoable 报告是否把 correlation id 回写到 c 表示的响应头。
func (p *Propagator) echoable(c xtrace.Carrier, in inbound) bool {
	if !in.opts.IncludeInResponse {
		return false
	}
	if !xtrace.CanCarry(c, in.opts.HeaderName, in.decision.CorrelationID) {
		p.logger.Debug(in.ctx, "correlation id not representable in response, header skipped",
			slogHeader(in.opts.HeaderName))
		return false
	}
	return true
}

// recordPanic 记录 panic 并结束 span，由调用方继续向上 panic。
func recordPanic(span *xspan.Span, rec any) {
	if err, ok := rec.(error); ok {
		span.SetError(fmt.Errorf("panic: %w", err))
	} else {
		span.SetError(fmt.Errorf("panic: %v", rec))
	}
	span.Stop()
}
