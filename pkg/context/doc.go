// Package context 提供请求上下文相关的子包。
//
// 子包列表：
//   - xctx: correlation id 与 trace 字段在 context.Context 中的存取
//
// 设计原则：
//   - 所有请求级信息通过 context.Context 传递，不使用全局变量
//   - 清除通过遮蔽标记实现，不修改父 context
package context
