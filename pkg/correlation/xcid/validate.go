package xcid

import "fmt"

// MaxLength correlation ID 的最大字节长度。
const MaxLength = 128

// Validate 按格式规则校验 correlation ID。
//
// 规则：
//   - 非空
//   - 长度不超过 MaxLength（按字节计，合法字符均为 ASCII）
//   - 只包含 [A-Za-z0-9_-]
//
// 返回值为 ErrEmpty / ErrTooLong / ErrInvalidChar（可能被包装，使用 errors.Is 判断）。
func Validate(id string) error {
	if id == "" {
		return ErrEmpty
	}
	if len(id) > MaxLength {
		return fmt.Errorf("%w: %d > %d", ErrTooLong, len(id), MaxLength)
	}
	for i := 0; i < len(id); i++ {
		if !isIDChar(id[i]) {
			return fmt.Errorf("%w: %q at %d", ErrInvalidChar, id[i], i)
		}
	}
	return nil
}

// IsValid 是 Validate 的布尔版本。
func IsValid(id string) bool {
	if id == "" || len(id) > MaxLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !isIDChar(id[i]) {
			return false
		}
	}
	return true
}

func isIDChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	default:
		return false
	}
}

// Validator 决定一个入站候选值是否可以被采纳。
//
// 零值可用，Strict 为 false 时任何非空字符串都被接受。
// 被拒绝的值由调用方按"不存在"处理，不向外暴露错误。
type Validator struct {
	// Strict 开启格式校验（对应配置项 validate_format）。
	Strict bool
}

// Accept 返回候选值是否可采纳。
func (v Validator) Accept(id string) bool {
	if !v.Strict {
		return id != ""
	}
	return IsValid(id)
}
