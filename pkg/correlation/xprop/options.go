package xprop

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/net/http/httpguts"
)

// 默认头名称。
const (
	DefaultHeaderName       = "X-Correlation-Id"
	DefaultLegacyHeaderName = "Request-Id"
)

// Options 传播行为配置。
//
// 值类型，构造后不可变；全局默认值通过原子快照替换。
type Options struct {
	// HeaderName 携带 correlation id 的头名称（入站读取、出站写入、响应回写）。
	HeaderName string

	// AlwaysGenerateNew 忽略入站与已有的 id，总是生成新值。
	AlwaysGenerateNew bool

	// ValidateFormat 开启入站 id 格式校验，不合法的值按不存在处理。
	ValidateFormat bool

	// SpanCreationEnabled 入站与出站拦截器是否创建 span。
	SpanCreationEnabled bool

	// IncludeInResponse 是否把 correlation id 回写到响应头。
	IncludeInResponse bool

	// LegacyHeaderName 旧版层级 ID 的头名称，为空时不识别旧格式。
	// 旧格式只读不写。
	LegacyHeaderName string
}

// DefaultOptions 返回默认配置。
func DefaultOptions() Options {
	return Options{
		HeaderName:          DefaultHeaderName,
		SpanCreationEnabled: true,
		IncludeInResponse:   true,
		LegacyHeaderName:    DefaultLegacyHeaderName,
	}
}

// Validate 校验头名称。
//
// 名称必须是 HTTP 字段名（RFC 9110 token），同时能作为 gRPC metadata key：
// 小写后只含 0-9 a-z - _ .，不能以 "grpc-" 开头，也不能以 "-bin" 结尾。
func (o Options) Validate() error {
	if o.HeaderName == "" {
		return ErrEmptyHeaderName
	}
	if err := validateHeaderName(o.HeaderName); err != nil {
		return err
	}
	if o.LegacyHeaderName != "" {
		return validateHeaderName(o.LegacyHeaderName)
	}
	return nil
}

func validateHeaderName(name string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidHeaderName, name)
	}
	key := strings.ToLower(name)
	if strings.HasPrefix(key, "grpc-") || strings.HasSuffix(key, "-bin") {
		return fmt.Errorf("%w: %q", ErrReservedHeaderName, name)
	}
	for i := range len(key) {
		c := key[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_' || c == '.') {
			return fmt.Errorf("%w: %q", ErrInvalidHeaderName, name)
		}
	}
	return nil
}

// =============================================================================
// 全局默认值
// =============================================================================

var (
	defaultMu   sync.Mutex
	defaultOpts atomic.Pointer[Options]
)

// SetDefaultOptions 校验后替换全局默认配置，校验失败时保持原值。
//
// 写入经互斥锁串行化，读取（DefaultOptionsSnapshot）为原子加载，
// 已在处理中的请求继续使用它开始时读到的快照。
func SetDefaultOptions(o Options) error {
	if err := o.Validate(); err != nil {
		return err
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOpts.Store(&o)
	return nil
}

// DefaultOptionsSnapshot 返回当前全局默认配置的副本。
func DefaultOptionsSnapshot() Options {
	if p := defaultOpts.Load(); p != nil {
		return *p
	}
	return DefaultOptions()
}

// ResetDefaultOptions 恢复为 DefaultOptions()。
func ResetDefaultOptions() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOpts.Store(nil)
}
