package xlog

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

var (
	defaultLogger atomic.Pointer[xlogger]
	defaultOnce   sync.Once
)

// Default 返回全局 Logger，首次调用时惰性创建（stderr、Info、text、enrich）。
func Default() Logger {
	return loadDefault()
}

func loadDefault() *xlogger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	defaultOnce.Do(func() {
		if defaultLogger.Load() != nil {
			return
		}
		l, _, err := New().SetOutput(os.Stderr).Build()
		if err != nil {
			// 默认配置不会失败
			panic(err)
		}
		defaultLogger.CompareAndSwap(nil, l.(*xlogger))
	})
	return defaultLogger.Load()
}

// SetDefault 替换全局 Logger。传入非 Builder 构建的实现会被忽略。
func SetDefault(l Logger) {
	if xl, ok := l.(*xlogger); ok {
		defaultLogger.Store(xl)
	}
}

// ResetDefault 清除全局 Logger，下次 Default 返回新建实例。仅供测试。
func ResetDefault() {
	defaultLogger.Store(nil)
	defaultOnce = sync.Once{}
}

// 全局函数的 skip：Callers → log → Debug/Info/... → 业务代码
const globalSkip = 3

// Debug 使用全局 Logger 记录 Debug 日志
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	loadDefault().log(ctx, slog.LevelDebug, msg, attrs, globalSkip)
}

// Info 使用全局 Logger 记录 Info 日志
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	loadDefault().log(ctx, slog.LevelInfo, msg, attrs, globalSkip)
}

// Warn 使用全局 Logger 记录 Warn 日志
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	loadDefault().log(ctx, slog.LevelWarn, msg, attrs, globalSkip)
}

// Error 使用全局 Logger 记录 Error 日志
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	loadDefault().log(ctx, slog.LevelError, msg, attrs, globalSkip)
}
