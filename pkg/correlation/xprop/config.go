package xprop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/omeyang/xcorr/pkg/config/xconf"
	"github.com/omeyang/xcorr/pkg/context/xctx"
	"github.com/omeyang/xcorr/pkg/correlation/xcid"
	"github.com/omeyang/xcorr/pkg/observability/xlog"
)

// ConfigKey 配置文件中的根键。
const ConfigKey = "correlation"

// Config 配置文件中 correlation 段的内容。
type Config struct {
	Options
	// Generator 生成器名称（uuid 或 sonyflake），默认 uuid。
	Generator string

	gen xcid.Generator
}

// IDGenerator 返回 LoadOptions 创建并安装到 xctx 的生成器实例。
//
// 构造 Propagator 时应复用该实例：同一进程内的两个 sonyflake 实例
// 使用相同的机器号，可能生成重复 ID。未经 LoadOptions 得到的 Config 返回 nil。
func (c Config) IDGenerator() xcid.Generator {
	return c.gen
}

// fileConfig 配置文件映射。预先填入默认值，缺失的键保持默认。
type fileConfig struct {
	HeaderName          string `koanf:"header_name"`
	AlwaysGenerateNew   bool   `koanf:"always_generate_new"`
	ValidateFormat      bool   `koanf:"validate_format"`
	SpanCreationEnabled bool   `koanf:"span_creation_enabled"`
	IncludeInResponse   bool   `koanf:"include_in_response"`
	LegacyHeaderName    string `koanf:"legacy_header_name"`
	Generator           string `koanf:"generator"`
}

// ParseConfig 从 xconf 配置中读取 correlation 段并校验。
func ParseConfig(cfg *xconf.Config) (Config, error) {
	d := DefaultOptions()
	fc := fileConfig{
		HeaderName:          d.HeaderName,
		AlwaysGenerateNew:   d.AlwaysGenerateNew,
		ValidateFormat:      d.ValidateFormat,
		SpanCreationEnabled: d.SpanCreationEnabled,
		IncludeInResponse:   d.IncludeInResponse,
		LegacyHeaderName:    d.LegacyHeaderName,
		Generator:           xcid.GeneratorUUID,
	}
	if err := cfg.Unmarshal(ConfigKey, &fc); err != nil {
		return Config{}, err
	}

	c := Config{
		Options: Options{
			HeaderName:          fc.HeaderName,
			AlwaysGenerateNew:   fc.AlwaysGenerateNew,
			ValidateFormat:      fc.ValidateFormat,
			SpanCreationEnabled: fc.SpanCreationEnabled,
			IncludeInResponse:   fc.IncludeInResponse,
			LegacyHeaderName:    fc.LegacyHeaderName,
		},
		Generator: fc.Generator,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	c.Generator = strings.ToLower(strings.TrimSpace(c.Generator))
	if c.Generator == "" {
		c.Generator = xcid.GeneratorUUID
	}
	if c.Generator != xcid.GeneratorUUID && c.Generator != xcid.GeneratorSonyflake {
		return Config{}, fmt.Errorf("%w: %q", xcid.ErrUnknownGenerator, c.Generator)
	}
	return c, nil
}

// LoadOptions 读取配置文件，替换全局默认配置，并把 xctx.EnsureCorrelationID
// 的生成器切换为配置指定的实现。
//
// 返回的 Config 中的 Generator 同样用于构造 Propagator（xcid.NewGenerator），
// 不随热更新变化。
func LoadOptions(path string) (Config, *xconf.Config, error) {
	cfg, err := xconf.New(path)
	if err != nil {
		return Config{}, nil, err
	}
	c, err := ParseConfig(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	gen, err := xcid.NewGenerator(c.Generator)
	if err != nil {
		return Config{}, nil, err
	}
	if err := SetDefaultOptions(c.Options); err != nil {
		return Config{}, nil, err
	}
	xctx.SetGenerator(gen.Generate)
	c.gen = gen
	return c, cfg, nil
}

// WatchOptions 监视配置文件，变更后重新校验并替换全局默认配置，阻塞直到 ctx 取消。
//
// 重载或校验失败时记录 Warn 日志并保留当前配置。logger 为 nil 时使用 xlog.Default()。
func WatchOptions(ctx context.Context, cfg *xconf.Config, logger xlog.Logger, opts ...xconf.WatchOption) error {
	if logger == nil {
		logger = xlog.Default()
	}
	w, err := xconf.NewWatcher(cfg, func(c *xconf.Config, err error) {
		if err != nil {
			logger.Warn(ctx, "correlation config reload failed", xlog.Err(err))
			return
		}
		parsed, err := ParseConfig(c)
		if err == nil {
			err = SetDefaultOptions(parsed.Options)
		}
		if err != nil {
			logger.Warn(ctx, "correlation config rejected, keeping previous options", xlog.Err(err))
			return
		}
		logger.Info(ctx, "correlation options reloaded",
			xlog.Component("xprop"), slogHeader(parsed.HeaderName))
	}, opts...)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func slogHeader(name string) slog.Attr {
	return slog.String("header_name", name)
}
