// Package xconf 基于 koanf 的最小化配置加载器。
//
// 负责文件/字节数据的加载、反序列化和热重载，不负责配置治理
// （必选字段校验、环境变量覆盖），这些由使用方在 Unmarshal 后完成。
//
// # 支持的格式
//
//   - YAML：.yaml, .yml
//   - JSON：.json
//
// # 并发
//
// Reload 串行执行，解析成功后原子替换内部 koanf 实例；Client 与 Unmarshal 无锁读取。
// 解析失败不会破坏当前快照。
//
// # 监视
//
//	cfg, err := xconf.New("/etc/xcorr/config.yaml")
//	if err != nil { ... }
//	w, err := xconf.NewWatcher(cfg, func(c *xconf.Config, err error) { ... })
//	if err != nil { ... }
//	go w.Run(ctx) // ctx 取消后停止，之后不再回调
package xconf
