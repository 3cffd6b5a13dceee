// Package correlation 提供 correlation id 相关的子包。
//
// 子包列表：
//   - xcid: correlation id 的校验与生成
//   - xprop: HTTP/gRPC/gin/消息的入站决策与出站注入
package correlation
