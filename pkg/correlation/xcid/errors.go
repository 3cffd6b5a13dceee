package xcid

import "errors"

var (
	// ErrEmpty correlation ID 为空。
	ErrEmpty = errors.New("xcid: empty correlation id")

	// ErrTooLong correlation ID 超过 MaxLength。
	ErrTooLong = errors.New("xcid: correlation id too long")

	// ErrInvalidChar correlation ID 含有 [A-Za-z0-9_-] 之外的字符。
	ErrInvalidChar = errors.New("xcid: invalid character in correlation id")

	// ErrGenerate 生成器无法产生新 ID。
	ErrGenerate = errors.New("xcid: generate correlation id failed")

	// ErrUnknownGenerator 配置中的生成器名称无法识别。
	ErrUnknownGenerator = errors.New("xcid: unknown generator")
)
