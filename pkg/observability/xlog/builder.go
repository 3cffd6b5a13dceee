package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 构建错误
var (
	ErrInvalidLevel  = errors.New("xlog: invalid level")
	ErrInvalidFormat = errors.New("xlog: invalid format, want text or json")
	ErrNilOutput     = errors.New("xlog: output is nil")
	ErrEmptyFilename = errors.New("xlog: rotation filename is empty")
)

// RotationConfig 文件轮转配置，字段与 lumberjack.Logger 一一对应。
type RotationConfig struct {
	MaxSizeMB  int  // 单文件上限，0 表示 lumberjack 默认值（100MB）
	MaxBackups int  // 保留的旧文件数，0 表示不限
	MaxAgeDays int  // 旧文件保留天数，0 表示不限
	Compress   bool // 是否 gzip 压缩旧文件
	LocalTime  bool // 备份文件名使用本地时间
}

// Builder 链式构建 Logger
//
// 构建过程中的第一个错误会被保留，Build 时返回。
type Builder struct {
	output      io.Writer
	level       Level
	format      string
	addSource   bool
	enrich      bool
	rotation    *lumberjack.Logger
	onError     func(error)
	replaceAttr func(groups []string, a slog.Attr) slog.Attr
	attrs       []slog.Attr
	err         error
}

// New 创建 Builder，默认输出 stderr、Info 级别、text 格式、开启 enrich。
func New() *Builder {
	return &Builder{
		output: os.Stderr,
		level:  LevelInfo,
		format: "text",
		enrich: true,
	}
}

// SetOutput 设置输出目标
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w == nil {
		b.setErr(ErrNilOutput)
		return b
	}
	b.output = w
	return b
}

// SetLevel 设置初始级别
func (b *Builder) SetLevel(level Level) *Builder {
	b.level = level
	return b
}

// SetLevelString 按字符串设置级别，非法值在 Build 时返回错误
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		b.setErr(err)
		return b
	}
	b.level = level
	return b
}

// SetFormat 设置输出格式：text 或 json
func (b *Builder) SetFormat(format string) *Builder {
	if format != "text" && format != "json" {
		b.setErr(fmt.Errorf("%w: %q", ErrInvalidFormat, format))
		return b
	}
	b.format = format
	return b
}

// SetAddSource 是否记录调用位置
func (b *Builder) SetAddSource(v bool) *Builder {
	b.addSource = v
	return b
}

// SetEnrich 是否自动注入 correlation_id 与 trace 字段
func (b *Builder) SetEnrich(v bool) *Builder {
	b.enrich = v
	return b
}

// SetRotation 输出到文件并按 cfg 轮转，会覆盖 SetOutput。
// Build 返回的 cleanup 负责关闭文件。
func (b *Builder) SetRotation(filename string, cfg RotationConfig) *Builder {
	if filename == "" {
		b.setErr(ErrEmptyFilename)
		return b
	}
	b.rotation = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	}
	return b
}

// SetOnError 设置 Handler 写入失败时的回调
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// SetReplaceAttr 透传给 slog.HandlerOptions.ReplaceAttr
func (b *Builder) SetReplaceAttr(fn func(groups []string, a slog.Attr) slog.Attr) *Builder {
	b.replaceAttr = fn
	return b
}

// SetAttrs 设置每条日志都携带的静态属性（如 service）
func (b *Builder) SetAttrs(attrs ...slog.Attr) *Builder {
	b.attrs = append(b.attrs, attrs...)
	return b
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build 构建 Logger
//
// cleanup 在使用文件轮转时关闭文件句柄，其他情况为空操作，总是非 nil。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	noop := func() error { return nil }
	if b.err != nil {
		return nil, noop, b.err
	}

	out := b.output
	cleanup := noop
	if b.rotation != nil {
		out = b.rotation
		cleanup = b.rotation.Close
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.Level(b.level))
	opts := &slog.HandlerOptions{
		Level:       levelVar,
		AddSource:   b.addSource,
		ReplaceAttr: b.replaceAttr,
	}

	var handler slog.Handler
	if b.format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	if len(b.attrs) > 0 {
		handler = handler.WithAttrs(b.attrs)
	}
	if b.enrich {
		eh, err := NewEnrichHandler(handler)
		if err != nil {
			return nil, noop, err
		}
		handler = eh
	}

	return &xlogger{
		handler:    handler,
		levelVar:   levelVar,
		onError:    b.onError,
		errorCount: new(atomic.Uint64),
		addSource:  b.addSource,
	}, cleanup, nil
}
