// Package xlog 基于 log/slog 的结构化日志。
//
// # 关联字段
//
// 开启 enrich（默认）后，每条日志自动从 context 读取并附加:
//   - correlation_id
//   - trace_id / span_id / trace_flags
//
// 未设置的字段直接省略，不输出空值。
//
// # 文件轮转
//
// SetRotation 基于 lumberjack 按大小轮转，Build 返回的 cleanup 关闭文件:
//
//	logger, cleanup, err := xlog.New().
//	    SetFormat("json").
//	    SetRotation("/var/log/app.log", xlog.RotationConfig{MaxSizeMB: 100, MaxBackups: 7}).
//	    Build()
//	if err != nil { ... }
//	defer cleanup()
//
// # logrus 兼容
//
// 仍使用 logrus 的代码可以注册 NewLogrusHook()，通过 WithContext 传入 context
// 即可得到相同的关联字段。
package xlog
