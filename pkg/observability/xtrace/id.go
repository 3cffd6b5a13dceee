package xtrace

import (
	"crypto/rand"
	"encoding/hex"
)

// ID 字节长度（W3C Trace Context 规范）
const (
	// TraceIDSize 128-bit (16 bytes) -> 32 hex chars
	TraceIDSize = 16

	// SpanIDSize 64-bit (8 bytes) -> 16 hex chars
	SpanIDSize = 8
)

// NewTraceID 生成 32 位小写十六进制 trace ID。
//
// 使用 crypto/rand。W3C 禁止全零值，出现时重新生成（概率 2^-128）。
//
// 熵源不可用属于系统级故障，此时 panic，与 OpenTelemetry SDK 的策略一致。
func NewTraceID() string {
	return randomHex(TraceIDSize)
}

// NewSpanID 生成 16 位小写十六进制 span ID，策略同 NewTraceID。
func NewSpanID() string {
	return randomHex(SpanIDSize)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	for {
		if _, err := rand.Read(buf); err != nil {
			panic("xtrace: crypto/rand.Read failed: " + err.Error())
		}
		if !isAllZeros(buf) {
			return hex.EncodeToString(buf)
		}
	}
}

func isAllZeros(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
