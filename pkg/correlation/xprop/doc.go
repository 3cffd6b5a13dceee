// Package xprop 在服务边界上传播 correlation id 与 W3C 追踪上下文。
//
// # 入站
//
// 每个入站请求（HTTP、gin、gRPC、消息）经过同一套决策：
//
//  1. AlwaysGenerateNew 时总是生成新 id
//  2. 入站头存在且通过校验时采纳
//  3. 否则沿用 context 中已有的 id（同进程内的重入）
//  4. 否则生成
//
// traceparent 合法时作为远程父级；不合法时回退识别旧版 Request-Id，
// 旧版 ID 只会记录到 span 标签，永远不会写出。
//
// # 出站
//
// Inject 只读取 context，不生成 id、不创建 span。当前追踪上下文为 W3C 时写
// traceparent，否则删除残留值；tracestate 从不写出。
//
//	p, err := xprop.New()
//	if err != nil { ... }
//	mux.Handle("/", p.Middleware(handler))
//	client := &http.Client{Transport: p.Transport(nil)}
//
// # 配置
//
// 未使用 WithOptions 的 Propagator 每次请求读取全局默认配置快照，
// LoadOptions 与 WatchOptions 从配置文件的 correlation 段加载并热更新该快照。
package xprop
