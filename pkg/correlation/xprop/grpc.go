package xprop

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/omeyang/xcorr/pkg/observability/xlog"
	"github.com/omeyang/xcorr/pkg/observability/xspan"
	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

// =============================================================================
// gRPC 服务端拦截器
// =============================================================================

// UnaryServerInterceptor 返回 gRPC 一元服务端拦截器。
//
// 从 incoming metadata 决策 correlation id，通过 grpc.SetHeader 回写（失败仅记录 Debug 日志），
// handler 的错误记录到 span 后原样返回。
func (p *Propagator) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		in := p.beginRPC(ctx, info.FullMethod)
		span := in.span
		if p.echoable(xtrace.MetadataCarrier(nil), in) {
			p.setHeader(in.ctx, func(md metadata.MD) error { return grpc.SetHeader(in.ctx, md) }, in)
		}

		defer func() {
			if rec := recover(); rec != nil {
				recordPanic(span, rec)
				panic(rec)
			}
			finishRPC(span, err)
		}()
		return handler(in.ctx, req)
	}
}

// StreamServerInterceptor 返回 gRPC 流式服务端拦截器。
func (p *Propagator) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		in := p.beginRPC(ss.Context(), info.FullMethod)
		span := in.span
		if p.echoable(xtrace.MetadataCarrier(nil), in) {
			p.setHeader(in.ctx, ss.SetHeader, in)
		}

		defer func() {
			if rec := recover(); rec != nil {
				recordPanic(span, rec)
				panic(rec)
			}
			finishRPC(span, err)
		}()
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: in.ctx})
	}
}

func (p *Propagator) beginRPC(ctx context.Context, method string) inbound {
	md, _ := metadata.FromIncomingContext(ctx)
	in := p.begin(ctx, xtrace.MetadataCarrier(md), method, xspan.KindServer)
	in.span.AddTag(TagRPCMethod, method)
	return in
}

func (p *Propagator) setHeader(ctx context.Context, set func(metadata.MD) error, in inbound) {
	if err := set(metadata.Pairs(in.opts.HeaderName, in.decision.CorrelationID)); err != nil {
		p.logger.Debug(ctx, "set correlation response header failed", xlog.Err(err))
	}
}

func finishRPC(span *xspan.Span, err error) {
	span.AddTag(TagRPCStatusCode, status.Code(err).String())
	if err != nil {
		span.SetError(err)
	}
	span.Stop()
}

// wrappedServerStream 包装 ServerStream 以覆盖 Context。
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context 返回携带关联信息的 context。
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

// =============================================================================
// gRPC 客户端拦截器
// =============================================================================

// UnaryClientInterceptor 返回 gRPC 一元客户端拦截器：打开客户端 span 并注入 outgoing metadata。
func (p *Propagator) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx, span := p.startClient(ctx, method, xspan.KindClient)
		span.AddTag(TagRPCMethod, method)
		err := invoker(p.InjectOutgoing(ctx), method, req, reply, cc, opts...)
		finishRPC(span, err)
		return err
	}
}

// StreamClientInterceptor 返回 gRPC 流式客户端拦截器。
//
// span 只覆盖流的建立，不覆盖后续消息收发。
func (p *Propagator) StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		ctx, span := p.startClient(ctx, method, xspan.KindClient)
		span.AddTag(TagRPCMethod, method)
		cs, err := streamer(p.InjectOutgoing(ctx), desc, cc, method, opts...)
		finishRPC(span, err)
		return cs, err
	}
}

// InjectOutgoing 将关联信息写入 outgoing metadata 的副本，返回新的 context。
func (p *Propagator) InjectOutgoing(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.MD{}
	}
	p.Inject(ctx, xtrace.MetadataCarrier(md))
	return metadata.NewOutgoingContext(ctx, md)
}
