package xcid

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/sonyflake/v2"
)

// Generator 生成新的 correlation ID。
//
// 实现必须并发安全，且生成的值必须通过 Validate。
type Generator interface {
	Generate() (string, error)
}

// GeneratorFunc 函数适配器。
type GeneratorFunc func() (string, error)

// Generate 实现 Generator。
func (f GeneratorFunc) Generate() (string, error) { return f() }

// =============================================================================
// UUID
// =============================================================================

// UUIDGenerator 生成 UUID v4 字符串（36 字符，小写十六进制加连字符）。
type UUIDGenerator struct{}

// Generate 实现 Generator。
func (UUIDGenerator) Generate() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	return u.String(), nil
}

// =============================================================================
// Sonyflake
// =============================================================================

// sonyflakeStartTime 纪元起点，与旧系统保持一致，修改会导致 ID 不再单调。
var sonyflakeStartTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// SonyflakeGenerator 生成按时间有序的短 ID（sonyflake 数值的 36 进制表示）。
//
// 适用于希望 correlation ID 可以按时间排序、长度更短（约 12 字符）的部署。
type SonyflakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// NewSonyflakeGenerator 创建 SonyflakeGenerator。
//
// machineID 为 nil 时使用 sonyflake 默认策略（私有 IP 低 16 位）。
// 在没有私有 IP 的环境中默认策略会失败，返回 ErrGenerate。
func NewSonyflakeGenerator(machineID func() (int, error)) (*SonyflakeGenerator, error) {
	sf, err := sonyflake.New(sonyflake.Settings{
		StartTime: sonyflakeStartTime,
		MachineID: machineID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	return &SonyflakeGenerator{sf: sf}, nil
}

// Generate 实现 Generator。
func (g *SonyflakeGenerator) Generate() (string, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerate, err)
	}
	return strconv.FormatInt(id, 36), nil
}

// =============================================================================
// 按名称构造
// =============================================================================

// 生成器名称（配置项 correlation.generator）。
const (
	GeneratorUUID      = "uuid"
	GeneratorSonyflake = "sonyflake"
)

// NewGenerator 按名称创建生成器，名称大小写不敏感，空字符串等价于 "uuid"。
func NewGenerator(name string) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", GeneratorUUID:
		return UUIDGenerator{}, nil
	case GeneratorSonyflake:
		return NewSonyflakeGenerator(nil)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, name)
	}
}
