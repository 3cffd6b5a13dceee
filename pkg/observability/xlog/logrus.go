package xlog

import (
	"github.com/sirupsen/logrus"

	"github.com/omeyang/xcorr/pkg/context/xctx"
)

// LogrusHook 让 logrus 日志也带上 correlation_id 与 trace 字段
//
// 需通过 logger.WithContext(ctx) 传入 context，entry.Context 为 nil 时不做处理。
// 已存在的同名字段不会被覆盖。
type LogrusHook struct {
	levels []logrus.Level
}

// NewLogrusHook 创建 hook，levels 为空时作用于全部级别
func NewLogrusHook(levels ...logrus.Level) *LogrusHook {
	if len(levels) == 0 {
		levels = logrus.AllLevels
	}
	return &LogrusHook{levels: levels}
}

// Levels 实现 logrus.Hook
func (h *LogrusHook) Levels() []logrus.Level {
	return h.levels
}

// Fire 实现 logrus.Hook
func (h *LogrusHook) Fire(entry *logrus.Entry) error {
	if entry.Context == nil {
		return nil
	}
	for _, a := range xctx.LogAttrs(entry.Context) {
		if _, exists := entry.Data[a.Key]; exists {
			continue
		}
		entry.Data[a.Key] = a.Value.String()
	}
	return nil
}
