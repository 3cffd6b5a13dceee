package xtrace

import (
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
	"google.golang.org/grpc/metadata"
)

// Carrier 传输层头部的读写抽象。
//
// Set 必须替换同名的所有已有值，保证下游只看到一个值。
type Carrier interface {
	Get(key string) string
	Set(key, value string)
	Del(key string)
}

// ValueValidator 由对取值有约束的 carrier 实现。
type ValueValidator interface {
	ValidValue(key, value string) bool
}

// CanCarry 报告 value 能否原样写入 c 的 key。
//
// 未实现 ValueValidator 的 carrier 接受任意值。
func CanCarry(c Carrier, key, value string) bool {
	if v, ok := c.(ValueValidator); ok {
		return v.ValidValue(key, value)
	}
	return true
}

// Extract 从 carrier 读取指定头部。
//
// 值会去除首尾空白，空值视为不存在。
func Extract(c Carrier, name string) (string, bool) {
	if c == nil || name == "" {
		return "", false
	}
	v := strings.TrimSpace(c.Get(name))
	return v, v != ""
}

// =============================================================================
// HTTP
// =============================================================================

// HTTPCarrier 适配 http.Header（名称大小写不敏感，按规范化形式存储）。
type HTTPCarrier http.Header

// Get 返回第一个值。
func (c HTTPCarrier) Get(key string) string { return http.Header(c).Get(key) }

// Set 替换全部已有值。
func (c HTTPCarrier) Set(key, value string) { http.Header(c).Set(key, value) }

// Del 删除全部值。
func (c HTTPCarrier) Del(key string) { http.Header(c).Del(key) }

// ValidValue 按 net/http 的规则校验头部值（拒绝 CR、LF 等控制字符）。
func (HTTPCarrier) ValidValue(_, value string) bool {
	return httpguts.ValidHeaderFieldValue(value)
}

// =============================================================================
// gRPC
// =============================================================================

// MetadataCarrier 适配 gRPC metadata.MD（key 统一为小写）。
type MetadataCarrier metadata.MD

// Get 返回第一个值。
func (c MetadataCarrier) Get(key string) string {
	if vals := metadata.MD(c).Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// Set 替换全部已有值。
func (c MetadataCarrier) Set(key, value string) { metadata.MD(c).Set(key, value) }

// Del 删除全部值。
func (c MetadataCarrier) Del(key string) { metadata.MD(c).Delete(key) }

// ValidValue 非二进制 key（无 -bin 后缀）的值只能是可打印 ASCII，与 grpc-go 的校验一致。
func (MetadataCarrier) ValidValue(key, value string) bool {
	if strings.HasSuffix(strings.ToLower(key), "-bin") {
		return true
	}
	for i := range len(value) {
		if value[i] < 0x20 || value[i] > 0x7E {
			return false
		}
	}
	return true
}

// =============================================================================
// 消息头
// =============================================================================

// MapCarrier 适配 map[string]string 形式的消息头（Kafka/Pulsar 等）。
//
// 消息头通常没有大小写规范，读取时先精确匹配再忽略大小写匹配；
// 写入时先删除所有大小写变体，避免出现重复头。
type MapCarrier map[string]string

// Get 返回 key 对应的值。
func (c MapCarrier) Get(key string) string {
	if v, ok := c[key]; ok {
		return v
	}
	for k, v := range c {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// Set 替换所有大小写变体。
func (c MapCarrier) Set(key, value string) {
	c.Del(key)
	c[key] = value
}

// Del 删除所有大小写变体。
func (c MapCarrier) Del(key string) {
	for k := range c {
		if strings.EqualFold(k, key) {
			delete(c, k)
		}
	}
}
