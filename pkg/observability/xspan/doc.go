// Package xspan 管理 span（工作单元）的生命周期。
//
// # 基本用法
//
//	tracer := xspan.NewTracer(xspan.WithEnabled(opts.SpanCreationEnabled))
//	ctx, span := tracer.Start(ctx, "GET /orders", xspan.KindServer, parent)
//	defer span.Stop()
//	span.AddTag("http.method", "GET")
//	if err != nil {
//	    span.SetError(err)
//	}
//
// span 创建关闭或注册表中没有观察者时 Start 返回 nil span，
// 所有 Span 方法对 nil 安全，未被追踪的请求不产生额外开销。
//
// # 当前 span
//
// 当前 span 保存在 context 中。Stop 之后 Current 自动回退到父 span，
// 等价于一个以 context 为载体的栈。包初始化时向 xctx 注册 trace 来源，
// xctx 的 trace_id / span_id / trace_flags 始终取自 Current，Stop 后随之回退。
//
// # 观察者
//
//   - OTelObserver: 转换为 sdktrace.ReadOnlySpan 交给 SpanProcessor，保留原始 ID
//   - MetricsObserver: OpenTelemetry 计数器与直方图
//   - PrometheusObserver: Prometheus 计数器与直方图
//
// 注册表采用 copy-on-write，请求路径上的读取是一次原子加载。
package xspan
