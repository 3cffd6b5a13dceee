// Package xtrace 提供 W3C Trace Context 的编解码与传输层头部读写。
//
// # 编解码
//
//	Parse(header)  -> (TraceContext, bool)  只接受 W3C 4 段格式
//	Format(tc)     -> string                始终输出 00-{trace}-{span}-{flags}
//
// 无法解析不是错误，调用方按"没有父级"处理。
//
// # 父级变体
//
// Parent 是 None | Legacy(id) | W3C(TraceContext) 的标签联合。旧版层级
// 请求标识（Request-Id: |root.1.）可以被识别并在本地标记，但只有 W3C 变体
// 可以经 Parent.Traceparent 写出。
//
// # 传输层
//
// Carrier 统一了 http.Header、gRPC metadata 与消息头 map 的读写，
// Extract 负责去空白与"空值即不存在"的判断。
//
// # OpenTelemetry
//
// TraceContext.SpanContext 与 FromSpanContext 在本包模型与
// go.opentelemetry.io/otel/trace 之间转换。
package xtrace
