package xtrace_test

import (
	"testing"

	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

func BenchmarkParse(b *testing.B) {
	for b.Loop() {
		_, _ = xtrace.Parse(validHeader)
	}
}

func BenchmarkFormat(b *testing.B) {
	tc := xtrace.TraceContext{TraceID: validTraceID, SpanID: validSpanID, Sampled: true}
	for b.Loop() {
		_ = xtrace.Format(tc)
	}
}
