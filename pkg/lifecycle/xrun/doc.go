// Package xrun 提供基于 errgroup + context 的进程生命周期管理。
//
// # 概述
//
// 当任一服务返回错误或收到终止信号时，context 会被取消，
// 所有服务应该监听 ctx.Done() 并优雅退出。
//
// # 快速开始
//
//	srv := &http.Server{Handler: mux}
//	err := xrun.Run(ctx,
//	    xrun.HTTPServer(xrun.OnListener(srv, lis), 5*time.Second),
//	    func(ctx context.Context) error { return xprop.WatchOptions(ctx, cfg, logger) },
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 收到信号正常退出
//	}
//
// 需要按名称记录服务启停日志时使用 Group：
//
//	g, ctx := xrun.NewGroup(ctx, xrun.WithName("gateway"), xrun.WithLogger(logger))
//	g.GoWithName("http", xrun.HTTPServer(srv, 5*time.Second))
//	err := g.Wait()
//
// # 退出原因
//
// Wait 过滤普通的 context.Canceled，但保留通过 Cancel(cause) 设置的原因，
// 信号退出时返回 *SignalError（errors.Is(err, ErrSignal) 为 true）。
package xrun
