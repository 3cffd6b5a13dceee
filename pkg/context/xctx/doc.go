// Package xctx 是请求流程内的环境上下文（ambient context）存储。
//
// 所有值都保存在 context.Context 中，天然具有"分叉即复制"语义：
// 在一个流程中写入的值对该流程后续的所有调用可见，对并发启动的兄弟流程不可见。
//
// # 核心字段
//
//   - correlation_id : 业务关联标识，在调用链上端到端保持稳定
//   - trace_id       : 追踪标识（W3C，128-bit，32 位十六进制）
//   - span_id        : 当前 span 标识（W3C，64-bit，16 位十六进制）
//   - trace_flags    : W3C trace-flags（采样决策）
//
// # 命名约定
//
//	WithXxx(ctx, value)    - 注入：将 value 写入 context
//	Xxx(ctx)               - 读取：缺失时返回零值（CorrelationID 额外返回 ok）
//	RequireXxx(ctx)        - 强制读取：缺失时返回错误
//	EnsureXxx(ctx)         - 确保存在：已存在则沿用，否则生成
//	ClearXxx(ctx)          - 清除：对返回的 context 屏蔽继承来的值
//
// # 后台任务
//
// 通过 go 语句启动的后台任务如果直接使用请求的 ctx，会继承 correlation ID，
// 同时也会继承请求的取消信号。独立的后台任务应使用 Detach(ctx)，
// 需要关联时再显式 WithCorrelationID。
//
// # 哨兵错误
//
//	ErrNilContext            - context 为 nil
//	ErrEmptyCorrelationID    - 写入空 correlation_id
//	ErrMissingCorrelationID  - correlation_id 缺失
//	ErrMissingTraceID        - trace_id 缺失
//	ErrMissingSpanID         - span_id 缺失
//
// xctx 是纯粹的存取层，不校验字段格式。格式规则见 xcid（correlation ID）
// 与 xtrace（W3C trace context）。
package xctx
