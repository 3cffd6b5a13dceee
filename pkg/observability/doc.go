// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xtrace: W3C traceparent 编解码、父级变体与传输层 carrier
//   - xspan: 轻量 span 生命周期与观察者（OTel、Prometheus、指标）
//   - xlog: 结构化日志，基于 log/slog 扩展，自动注入关联字段
//
// 设计原则：
//   - 遵循 W3C Trace Context 与 OpenTelemetry 语义
//   - 自动从 context 中提取关联信息注入日志
package observability
