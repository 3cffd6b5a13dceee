// Package xcid 提供 correlation ID 的格式校验与生成。
//
// # 格式规则
//
//	非空、长度 <= 128、字符集 [A-Za-z0-9_-]
//
// Validator.Strict 为 false 时只要求非空。
//
// # 生成器
//
//   - UUIDGenerator: UUID v4，默认
//   - SonyflakeGenerator: 时间有序的 36 进制短 ID
//
// 两者的输出都满足格式规则，可以无损地经过开启校验的下游服务。
package xcid
