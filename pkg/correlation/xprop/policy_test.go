package xprop_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/omeyang/xcorr/pkg/correlation/xcid"
	"github.com/omeyang/xcorr/pkg/correlation/xprop"
	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

func fixedGen(id string) xcid.Generator {
	return xcid.GeneratorFunc(func() (string, error) { return id, nil })
}

func TestDecideInbound_CorrelationID(t *testing.T) {
	strict := xcid.Validator{Strict: true}
	lenient := xcid.Validator{}
	defaults := xprop.DefaultOptions()
	alwaysNew := defaults
	alwaysNew.AlwaysGenerateNew = true

	tests := []struct {
		name       string
		in         xprop.Inbound
		opts       xprop.Options
		v          xcid.Validator
		wantID     string
		wantSource xprop.Source
	}{
		{"header adopted", xprop.Inbound{Header: "abc-123", HasHeader: true}, defaults, lenient, "abc-123", xprop.SourceHeader},
		{"header over ambient", xprop.Inbound{Header: "h", HasHeader: true, Ambient: "a", HasAmbient: true}, defaults, lenient, "h", xprop.SourceHeader},
		{"ambient when no header", xprop.Inbound{Ambient: "a", HasAmbient: true}, defaults, lenient, "a", xprop.SourceAmbient},
		{"generated when nothing", xprop.Inbound{}, defaults, lenient, "gen-1", xprop.SourceGenerated},
		{"always new ignores header", xprop.Inbound{Header: "h", HasHeader: true, Ambient: "a", HasAmbient: true}, alwaysNew, lenient, "gen-1", xprop.SourceGenerated},
		{"strict rejects space", xprop.Inbound{Header: "bad id", HasHeader: true}, defaults, strict, "gen-1", xprop.SourceGenerated},
		{"strict rejects 129 chars", xprop.Inbound{Header: strings.Repeat("a", 129), HasHeader: true}, defaults, strict, "gen-1", xprop.SourceGenerated},
		{"strict accepts 128 chars", xprop.Inbound{Header: strings.Repeat("a", 128), HasHeader: true}, defaults, strict, strings.Repeat("a", 128), xprop.SourceHeader},
		{"rejected header falls back to ambient", xprop.Inbound{Header: "bad id", HasHeader: true, Ambient: "a", HasAmbient: true}, defaults, strict, "a", xprop.SourceAmbient},
		{"lenient accepts space", xprop.Inbound{Header: "bad id", HasHeader: true}, defaults, lenient, "bad id", xprop.SourceHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := xprop.DecideInbound(tt.in, tt.opts, tt.v, fixedGen("gen-1"))
			assert.Equal(t, tt.wantID, d.CorrelationID)
			assert.Equal(t, tt.wantSource, d.Source)
		})
	}
}

func TestDecideInbound_GeneratorFailureFallsBackToUUID(t *testing.T) {
	failing := xcid.GeneratorFunc(func() (string, error) { return "", errors.New("clock moved backwards") })

	for _, gen := range []xcid.Generator{failing, nil} {
		d := xprop.DecideInbound(xprop.Inbound{}, xprop.DefaultOptions(), xcid.Validator{}, gen)
		_, err := uuid.Parse(d.CorrelationID)
		assert.NoError(t, err)
		assert.Equal(t, xprop.SourceGenerated, d.Source)
	}
}

func TestDecideInbound_Parent(t *testing.T) {
	opts := xprop.DefaultOptions()
	noLegacy := opts
	noLegacy.LegacyHeaderName = ""

	tests := []struct {
		name string
		in   xprop.Inbound
		opts xprop.Options
		want xtrace.ParentKind
	}{
		{"w3c", xprop.Inbound{Traceparent: validHeader}, opts, xtrace.ParentW3C},
		{"w3c wins over legacy", xprop.Inbound{Traceparent: validHeader, LegacyRequestID: "|root.1."}, opts, xtrace.ParentW3C},
		{"invalid traceparent", xprop.Inbound{Traceparent: "00-zz"}, opts, xtrace.ParentNone},
		{"legacy fallback", xprop.Inbound{Traceparent: "garbage", LegacyRequestID: "|root.1."}, opts, xtrace.ParentLegacy},
		{"legacy disabled", xprop.Inbound{LegacyRequestID: "|root.1."}, noLegacy, xtrace.ParentNone},
		{"none", xprop.Inbound{}, opts, xtrace.ParentNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := xprop.DecideInbound(tt.in, tt.opts, xcid.Validator{}, fixedGen("g"))
			assert.Equal(t, tt.want, d.Parent.Kind())
		})
	}
}

// correlation id 与追踪父级的决策互不影响。
func TestDecideInbound_Independent(t *testing.T) {
	strict := xcid.Validator{Strict: true}

	d := xprop.DecideInbound(xprop.Inbound{Header: "bad id", HasHeader: true, Traceparent: validHeader},
		xprop.DefaultOptions(), strict, fixedGen("g"))
	assert.Equal(t, "g", d.CorrelationID)
	tc, ok := d.Parent.W3C()
	assert.True(t, ok)
	assert.Equal(t, validTraceID, tc.TraceID)

	d = xprop.DecideInbound(xprop.Inbound{Header: "good", HasHeader: true, Traceparent: "broken"},
		xprop.DefaultOptions(), strict, fixedGen("g"))
	assert.Equal(t, "good", d.CorrelationID)
	assert.True(t, d.Parent.IsZero())
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "header", xprop.SourceHeader.String())
	assert.Equal(t, "ambient", xprop.SourceAmbient.String())
	assert.Equal(t, "generated", xprop.SourceGenerated.String())
}
