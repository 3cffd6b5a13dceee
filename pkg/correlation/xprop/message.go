package xprop

import (
	"context"

	"github.com/omeyang/xcorr/pkg/observability/xspan"
	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

// HandleMessage 消费端入站：从消息头决策 correlation id，打开 consumer span 后执行 fn。
//
// fn 的错误记录到 span 后原样返回；fn panic 时记录后继续向上 panic。
// headers 只读，可以为 nil。
func (p *Propagator) HandleMessage(ctx context.Context, headers map[string]string, name string, fn func(context.Context) error) (err error) {
	in := p.begin(ctx, xtrace.MapCarrier(headers), name, xspan.KindConsumer)
	span := in.span

	defer func() {
		if rec := recover(); rec != nil {
			recordPanic(span, rec)
			panic(rec)
		}
		if err != nil {
			span.SetError(err)
		}
		span.Stop()
	}()
	return fn(in.ctx)
}

// InjectMessage 生产端出站：将关联信息写入消息头。headers 为 nil 时不做处理。
func (p *Propagator) InjectMessage(ctx context.Context, headers map[string]string) {
	if headers == nil {
		return
	}
	p.Inject(ctx, xtrace.MapCarrier(headers))
}
