package xspan

import (
	"context"

	"github.com/omeyang/xcorr/pkg/context/xctx"
	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

type spanKey struct{}

type remoteParentKey struct{}

// masked 用于屏蔽继承的值。
type masked struct{}

func init() {
	xctx.SetTraceSource(currentTrace)
}

// currentTrace 以 Current 为准给出日志用的 trace 字段，没有存活 span 时交回 xctx 的静态字段。
func currentTrace(ctx context.Context) (xctx.Trace, bool) {
	s := Current(ctx)
	if s == nil {
		return xctx.Trace{}, false
	}
	tc := s.Context()
	return xctx.Trace{TraceID: tc.TraceID, SpanID: tc.SpanID, TraceFlags: tc.Flags()}, true
}

// ContextWithSpan 将 span 设为 ctx 的当前 span。
//
// xctx.TraceID / SpanID 随之返回该 span 的字段；span Stop 后回到上一层
// 尚未结束的 span，全部结束后回到打开 span 之前的值。
// span 为 nil 时原样返回 ctx。
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	if span == nil {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanKey{}, span)
}

// Current 返回 ctx 中最内层尚未结束的 span。
//
// 已 Stop 的 span 会被跳过并回退到其父 span，模拟"弹栈"：
// 即使调用方在 Stop 之后继续使用子 context，看到的也是上一层 span。
func Current(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(spanKey{}).(*Span)
	for s != nil && s.Ended() {
		s = s.parent
	}
	return s
}

// WithRemoteParent 记录入站请求携带的远程父级。
//
// span 创建关闭时入站拦截器仍会调用此函数，出站拦截器据此透传
// 上游的 W3C 上下文（Legacy 变体永远不会被写出）。
func WithRemoteParent(ctx context.Context, p xtrace.Parent) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.IsZero() {
		return context.WithValue(ctx, remoteParentKey{}, masked{})
	}
	return context.WithValue(ctx, remoteParentKey{}, p)
}

// RemoteParent 返回 WithRemoteParent 记录的父级，不存在时为 None。
func RemoteParent(ctx context.Context) xtrace.Parent {
	if ctx == nil {
		return xtrace.NoParent()
	}
	p, _ := ctx.Value(remoteParentKey{}).(xtrace.Parent)
	return p
}

// CurrentContext 返回出站调用应当传播的追踪上下文。
//
// 优先使用当前 span；没有 span 时回退到入站记录的远程父级。
func CurrentContext(ctx context.Context) xtrace.Parent {
	if s := Current(ctx); s != nil {
		return xtrace.W3CParent(s.Context())
	}
	return RemoteParent(ctx)
}

// Detach 为独立启动的后台任务构造 context。
//
// 在 xctx.Detach 的基础上进一步屏蔽当前 span 与远程父级，
// 后台任务打开的 span 将成为新的根。
func Detach(ctx context.Context) context.Context {
	ctx = xctx.Detach(ctx)
	ctx = context.WithValue(ctx, spanKey{}, (*Span)(nil))
	return context.WithValue(ctx, remoteParentKey{}, masked{})
}
