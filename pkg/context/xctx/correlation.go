package xctx

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// KeyCorrelationID 日志属性 Key
const KeyCorrelationID = "correlation_id"

const keyCorrelationID = contextKey("xctx:correlation_id")

// =============================================================================
// CorrelationID 操作
// =============================================================================

// CorrelationID 从 context 读取 correlation ID（非创建式读取）。
//
// 语义：只读，不会生成新值，也不会修改 context。
// 未设置、被 ClearCorrelationID 清除或 ctx 为 nil 时返回 ("", false)。
// 出站拦截器必须使用此函数，隐式生成新 ID 会破坏链路上的传播。
func CorrelationID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(keyCorrelationID).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithCorrelationID 将 correlation ID 写入 context。
//
// 如果 ctx 为 nil，返回 ErrNilContext；id 为空返回 ErrEmptyCorrelationID。
// 写入只对返回的 context 及其派生 context 可见，父 context 与并发的兄弟
// 流程不受影响。
func WithCorrelationID(ctx context.Context, id string) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if id == "" {
		return nil, ErrEmptyCorrelationID
	}
	return context.WithValue(ctx, keyCorrelationID, id), nil
}

// IDGenerator 生成 correlation ID。
type IDGenerator func() (string, error)

var idGenerator atomic.Pointer[IDGenerator]

// SetGenerator 替换 EnsureCorrelationID 使用的生成函数，nil 恢复为 UUID v4。
//
// 可与 EnsureCorrelationID 并发调用。
func SetGenerator(gen IDGenerator) {
	if gen == nil {
		idGenerator.Store(nil)
		return
	}
	idGenerator.Store(&gen)
}

// newCorrelationID 生成函数失败或返回空值时回退到 UUID v4。
func newCorrelationID() string {
	if p := idGenerator.Load(); p != nil {
		if id, err := (*p)(); err == nil && id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// EnsureCorrelationID 确保 context 中存在 correlation ID。
//
// 语义：有则沿用，无则用 SetGenerator 注册的函数（默认 UUID v4）生成并注入。
// 返回值中的 string 即生效的 ID。
// 如果 ctx 为 nil，返回 ErrNilContext。
func EnsureCorrelationID(ctx context.Context) (context.Context, string, error) {
	if ctx == nil {
		return nil, "", ErrNilContext
	}
	if id, ok := CorrelationID(ctx); ok {
		return ctx, id, nil
	}
	id := newCorrelationID()
	return context.WithValue(ctx, keyCorrelationID, id), id, nil
}

// RequireCorrelationID 从 context 获取 correlation ID，不存在则返回错误。
func RequireCorrelationID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", ErrNilContext
	}
	id, ok := CorrelationID(ctx)
	if !ok {
		return "", ErrMissingCorrelationID
	}
	return id, nil
}

// ClearCorrelationID 返回一个 correlation ID 被清除的 context。
//
// 父 context 中的值仍然存在，只是对返回的 context 不可见。
func ClearCorrelationID(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	return context.WithValue(ctx, keyCorrelationID, cleared{}), nil
}

// =============================================================================
// 脱离当前流程
// =============================================================================

// Detach 为独立启动的后台任务构造 context。
//
// 返回的 context 保留 ctx 中的其他值，但：
//   - 不继承取消信号和截止时间（context.WithoutCancel）
//   - 清除 correlation_id、trace_id、span_id、trace_flags
//
// 后台任务如需沿用请求的 correlation ID，必须显式调用 WithCorrelationID 传入。
// ctx 为 nil 时返回 context.Background()。
//
//	bg := xctx.Detach(ctx)
//	go worker(bg)
func Detach(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	out := context.WithoutCancel(ctx)
	for _, k := range []contextKey{keyCorrelationID, keyTraceID, keySpanID, keyTraceFlags} {
		out = context.WithValue(out, k, cleared{})
	}
	return out
}
