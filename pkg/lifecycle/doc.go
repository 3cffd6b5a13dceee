// Package lifecycle 进程生命周期管理。
//
// 子包:
//   - xrun: 基于 errgroup 的多服务并发运行、信号处理与优雅关闭
package lifecycle
