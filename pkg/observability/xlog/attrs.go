package xlog

import (
	"log/slog"
	"time"
)

// 常用属性键
const (
	KeyError     = "error"
	KeyComponent = "component"
	KeyOperation = "operation"
	KeyDuration  = "duration"
	KeySource    = "correlation_source"
)

// Err 记录错误，nil 时返回值为空串的属性
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// Component 标记日志来源组件
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Operation 标记操作名
func Operation(name string) slog.Attr {
	return slog.String(KeyOperation, name)
}

// Duration 记录耗时
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Source 记录 correlation id 的来源（header、ambient、generated）
func Source(source string) slog.Attr {
	return slog.String(KeySource, source)
}
