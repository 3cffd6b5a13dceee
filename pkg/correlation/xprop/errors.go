package xprop

import "errors"

var (
	// ErrEmptyHeaderName 关联头名称为空。
	ErrEmptyHeaderName = errors.New("xprop: header name is empty")

	// ErrInvalidHeaderName 头名称包含 HTTP 字段名或 gRPC metadata key 不允许的字符。
	ErrInvalidHeaderName = errors.New("xprop: header name contains invalid characters")

	// ErrReservedHeaderName 头名称使用了 gRPC 保留的前缀或后缀。
	ErrReservedHeaderName = errors.New("xprop: header name uses a reserved grpc prefix or suffix")

	// ErrNilGenerator 显式传入了 nil 生成器。
	ErrNilGenerator = errors.New("xprop: generator is nil")
)
