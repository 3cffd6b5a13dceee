package xctx

import "errors"

// =============================================================================
// Context Key 类型定义
// =============================================================================

// 设计决策: contextKey 使用 string 而非 int+iota。作为包私有类型不会与其他包的
// context key 冲突，字符串值在调试 context 传播问题时可读性更高。
type contextKey string

// cleared 是"显式清除"标记。
//
// 读取函数只接受 string 类型的值，因此写入 cleared{} 后即使父 context
// 中存在旧值，读取结果也是"不存在"。
type cleared struct{}

// =============================================================================
// 通用错误
// =============================================================================

var (
	// ErrNilContext 表示传入的 context 为 nil。
	ErrNilContext = errors.New("xctx: nil context")
)

// =============================================================================
// Correlation 相关错误
// =============================================================================

var (
	// ErrEmptyCorrelationID 表示写入的 correlation ID 为空字符串。
	// 空值不是合法的"已建立"状态，清除请使用 ClearCorrelationID。
	ErrEmptyCorrelationID = errors.New("xctx: empty correlation_id")

	// ErrMissingCorrelationID correlation_id 缺失
	ErrMissingCorrelationID = errors.New("xctx: missing correlation_id")
)

// =============================================================================
// Trace 相关错误
// =============================================================================

var (
	// ErrMissingTraceID trace_id 缺失
	ErrMissingTraceID = errors.New("xctx: missing trace_id")

	// ErrMissingSpanID span_id 缺失
	ErrMissingSpanID = errors.New("xctx: missing span_id")
)
