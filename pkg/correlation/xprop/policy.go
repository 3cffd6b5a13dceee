package xprop

import (
	"github.com/google/uuid"

	"github.com/omeyang/xcorr/pkg/correlation/xcid"
	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

// Source correlation id 的来源。
type Source uint8

const (
	// SourceGenerated 新生成。
	SourceGenerated Source = iota
	// SourceHeader 采纳入站头。
	SourceHeader
	// SourceAmbient 沿用 context 中已有的值。
	SourceAmbient
)

// String 返回来源名，用于日志。
func (s Source) String() string {
	switch s {
	case SourceHeader:
		return "header"
	case SourceAmbient:
		return "ambient"
	default:
		return "generated"
	}
}

// Inbound 一次入站决策的输入。
type Inbound struct {
	Header     string // 关联头的值（已去除空白）
	HasHeader  bool
	Ambient    string // context 中已有的 correlation id
	HasAmbient bool

	// Traceparent 入站 traceparent 原文。
	Traceparent string
	// LegacyRequestID 入站旧版层级 ID 原文，仅在 traceparent 不可用时使用。
	LegacyRequestID string
}

// Decision 入站决策结果。
type Decision struct {
	CorrelationID string
	Parent        xtrace.Parent
	Source        Source
}

// DecideInbound 决定本次请求使用的 correlation id 与远程父级。
//
// correlation id：
//  1. AlwaysGenerateNew 时总是生成
//  2. 入站头存在且被 v 接受时采纳
//  3. 否则沿用 context 中已有的值
//  4. 否则生成
//
// 远程父级与 correlation id 相互独立：traceparent 合法时为 W3C 变体，
// 否则尝试旧版层级 ID，都不可用时为 None。
//
// 生成失败时回退到 UUID，决策本身不会失败。gen 为 nil 时直接使用 UUID。
func DecideInbound(in Inbound, opts Options, v xcid.Validator, gen xcid.Generator) Decision {
	d := Decision{Parent: decideParent(in, opts)}

	switch {
	case opts.AlwaysGenerateNew:
		d.CorrelationID, d.Source = generate(gen), SourceGenerated
	case in.HasHeader && v.Accept(in.Header):
		d.CorrelationID, d.Source = in.Header, SourceHeader
	case in.HasAmbient && in.Ambient != "":
		d.CorrelationID, d.Source = in.Ambient, SourceAmbient
	default:
		d.CorrelationID, d.Source = generate(gen), SourceGenerated
	}
	return d
}

func decideParent(in Inbound, opts Options) xtrace.Parent {
	if tc, ok := xtrace.Parse(in.Traceparent); ok {
		return xtrace.W3CParent(tc)
	}
	if opts.LegacyHeaderName != "" {
		if p, ok := xtrace.ParseLegacy(in.LegacyRequestID); ok {
			return p
		}
	}
	return xtrace.NoParent()
}

func generate(gen xcid.Generator) string {
	if gen != nil {
		if id, err := gen.Generate(); err == nil && id != "" {
			return id
		}
	}
	return uuid.NewString()
}
