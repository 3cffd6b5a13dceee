package xtrace

import "strings"

// ParentKind 父级上下文的变体标签。
type ParentKind uint8

const (
	// ParentNone 没有父级，span 作为根打开。
	ParentNone ParentKind = iota
	// ParentW3C 合法的 W3C 上下文，可以序列化为 traceparent。
	ParentW3C
	// ParentLegacy 旧版层级 ID（如 "|4bf92f35.1."），只用于本地标记，从不序列化。
	ParentLegacy
)

// String 返回变体名称。
func (k ParentKind) String() string {
	switch k {
	case ParentW3C:
		return "w3c"
	case ParentLegacy:
		return "legacy"
	default:
		return "none"
	}
}

// Parent 父级追踪上下文：None | Legacy(id) | W3C(TraceContext)。
//
// 零值为 None。只能通过 NoParent / LegacyParent / W3CParent 构造，
// 字段不导出，保证"只有 W3C 变体可以取得 TraceContext"。
type Parent struct {
	kind   ParentKind
	legacy string
	w3c    TraceContext
}

// NoParent 返回 None 变体。
func NoParent() Parent { return Parent{} }

// W3CParent 返回 W3C 变体。tc 无效时退化为 None。
func W3CParent(tc TraceContext) Parent {
	if !tc.IsValid() {
		return Parent{}
	}
	return Parent{kind: ParentW3C, w3c: tc}
}

// LegacyParent 返回 Legacy 变体。id 为空时退化为 None。
func LegacyParent(id string) Parent {
	if id == "" {
		return Parent{}
	}
	return Parent{kind: ParentLegacy, legacy: id}
}

// Kind 返回变体标签。
func (p Parent) Kind() ParentKind { return p.kind }

// IsZero None 变体返回 true。
func (p Parent) IsZero() bool { return p.kind == ParentNone }

// W3C 返回 W3C 上下文；其他变体返回 false。
func (p Parent) W3C() (TraceContext, bool) {
	if p.kind != ParentW3C {
		return TraceContext{}, false
	}
	return p.w3c, true
}

// Legacy 返回旧版层级 ID；其他变体返回 false。
func (p Parent) Legacy() (string, bool) {
	if p.kind != ParentLegacy {
		return "", false
	}
	return p.legacy, true
}

// Traceparent 返回可写出的 traceparent 值。
// 只有 W3C 变体返回非空字符串。
func (p Parent) Traceparent() string {
	if tc, ok := p.W3C(); ok {
		return Format(tc)
	}
	return ""
}

// =============================================================================
// 旧版层级 ID
// =============================================================================

// maxLegacyIDLen 旧版 Request-Id 的长度上限。
const maxLegacyIDLen = 1024

// ParseLegacy 识别旧版层级请求标识（"|root.1.2." 形式）。
//
// 要求以 '|' 开头、至少包含一个非空的根段、只含可见 ASCII 字符。
// 能被 Parse 识别为 W3C 的值不属于旧版格式。
func ParseLegacy(requestID string) (Parent, bool) {
	s := strings.TrimSpace(requestID)
	if len(s) < 2 || len(s) > maxLegacyIDLen || s[0] != '|' {
		return Parent{}, false
	}
	for i := 1; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return Parent{}, false
		}
	}
	if LegacyRootID(s) == "" {
		return Parent{}, false
	}
	return LegacyParent(s), true
}

// LegacyRootID 返回层级 ID 的根段（'|' 与第一个 '.' 之间）。
func LegacyRootID(id string) string {
	id = strings.TrimPrefix(id, "|")
	if i := strings.IndexByte(id, '.'); i >= 0 {
		id = id[:i]
	}
	return id
}
