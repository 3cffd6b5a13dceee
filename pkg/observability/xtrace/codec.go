package xtrace

import "strings"

// =============================================================================
// 常量
// =============================================================================

// 传输层 key（HTTP Header 名称；gRPC metadata 与消息头使用相同名称的小写形式）。
const (
	// HeaderTraceparent W3C Trace Context 请求头（固定名称，不可配置）。
	HeaderTraceparent = "traceparent"

	// HeaderTracestate W3C tracestate 请求头。本模块从不写出该头，
	// 出站注入时仅用于清理调用方遗留的值。
	HeaderTracestate = "tracestate"

	// HeaderRequestID 旧版层级格式的请求标识头。
	HeaderRequestID = "Request-Id"
)

const (
	// traceparentLen W3C traceparent v00 固定长度：00-{32}-{16}-{2} = 55 字符
	traceparentLen = 55

	traceIDHexLen = 32
	spanIDHexLen  = 16

	zeroTraceID = "00000000000000000000000000000000"
	zeroSpanID  = "0000000000000000"
)

// =============================================================================
// TraceContext
// =============================================================================

// TraceContext W3C 追踪上下文。
//
// TraceID/SpanID/ParentSpanID 均为小写十六进制字符串。
// 对于 Parse 得到的上下文，SpanID 是上游调用方的 span（即本地 span 的父级），
// ParentSpanID 为空；对于 span 创建得到的上下文，ParentSpanID 为父 span 的 SpanID
// （根 span 为空）。
type TraceContext struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
	Sampled      bool
}

// IsValid TraceID 与 SpanID 格式正确且非全零时返回 true。
func (tc TraceContext) IsValid() bool {
	return isValidTraceID(tc.TraceID) && isValidSpanID(tc.SpanID)
}

// IsRoot 没有父 span 时返回 true。
func (tc TraceContext) IsRoot() bool {
	return tc.ParentSpanID == ""
}

// Flags 返回 trace-flags 的两位十六进制表示（"01" 已采样，"00" 未采样）。
func (tc TraceContext) Flags() string {
	if tc.Sampled {
		return "01"
	}
	return "00"
}

// =============================================================================
// W3C Traceparent 解析与生成
// =============================================================================

// Parse 解析 W3C traceparent 头。
//
// 格式：{version}-{trace-id}-{parent-id}-{trace-flags}
// 示例：00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01
//
// 只接受 4 段、宽度为 2/32/16/2 的十六进制格式，其余任何形态（包括旧版层级 ID）
// 均返回 false。解析不会返回错误：无法解析即视为"没有父级"。
//
// W3C 前向兼容：
//   - 版本 "ff" 保留，始终无效（大小写不敏感）
//   - 版本 "00" 必须恰好 55 字符
//   - 更高版本按 v00 解析前 4 段，允许以 "-" 开头的扩展字段
//   - trace-id / parent-id 全零无效
//
// 解析端接受大写十六进制，返回值统一为小写。
func Parse(header string) (TraceContext, bool) {
	header = strings.TrimSpace(header)
	if !validateTraceparentStructure(header) {
		return TraceContext{}, false
	}

	traceID := header[3:35]
	spanID := header[36:52]
	flags := header[53:55]
	if !isValidTraceID(traceID) || !isValidSpanID(spanID) || !isValidHex(flags) {
		return TraceContext{}, false
	}

	return TraceContext{
		TraceID: strings.ToLower(traceID),
		SpanID:  strings.ToLower(spanID),
		Sampled: hexNibble(flags[1])&0x1 == 1,
	}, true
}

// Format 生成 W3C traceparent 头（版本 00，小写十六进制）。
//
// 上下文无效时返回空字符串，调用方据此决定不写出 traceparent。
// 由于 TraceContext 只能通过 Parse 或 span 创建获得合法 ID，
// 旧版层级 ID 永远无法经由 Format 发出。
//
// 设计决策: 始终输出版本 "00"。即使收到更高版本的 traceparent，
// 也按自身支持的版本重新生成，扩展字段不继续传播。
func Format(tc TraceContext) string {
	if !tc.IsValid() {
		return ""
	}
	var buf [traceparentLen]byte
	copy(buf[0:3], "00-")
	copy(buf[3:35], strings.ToLower(tc.TraceID))
	buf[35] = '-'
	copy(buf[36:52], strings.ToLower(tc.SpanID))
	buf[52] = '-'
	copy(buf[53:55], tc.Flags())
	return string(buf[:])
}

// hasTraceparentSeparators 调用方保证 len(s) >= 55。
func hasTraceparentSeparators(s string) bool {
	return s[2] == '-' && s[35] == '-' && s[52] == '-'
}

// validateTraceparentStructure 验证长度、分隔符、版本与版本长度约束。
func validateTraceparentStructure(s string) bool {
	if len(s) < traceparentLen || !hasTraceparentSeparators(s) {
		return false
	}
	version := s[0:2]
	if !isValidHex(version) || strings.EqualFold(version, "ff") {
		return false
	}
	if version == "00" {
		return len(s) == traceparentLen
	}
	return len(s) == traceparentLen || s[traceparentLen] == '-'
}

// isValidHex 解析端容错：同时接受大写和小写。
func isValidHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') && !(c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

func isValidTraceID(id string) bool {
	return len(id) == traceIDHexLen && isValidHex(id) && id != zeroTraceID
}

func isValidSpanID(id string) bool {
	return len(id) == spanIDHexLen && isValidHex(id) && id != zeroSpanID
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
