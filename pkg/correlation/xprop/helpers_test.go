package xprop_test

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omeyang/xcorr/pkg/correlation/xprop"
	"github.com/omeyang/xcorr/pkg/observability/xlog"
	"github.com/omeyang/xcorr/pkg/observability/xspan"
)

const (
	validTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	validSpanID  = "00f067aa0ba902b7"
	validHeader  = "00-" + validTraceID + "-" + validSpanID + "-01"
)

// recorder 记录结束的 span。
type recorder struct {
	mu      sync.Mutex
	started int
	stopped []*xspan.Span
}

func (r *recorder) OnStart(*xspan.Span) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}

func (r *recorder) OnStop(s *xspan.Span) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = append(r.stopped, s)
}

func (r *recorder) Started() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

func (r *recorder) Stopped() []*xspan.Span {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*xspan.Span(nil), r.stopped...)
}

func (r *recorder) byKind(k xspan.Kind) []*xspan.Span {
	var out []*xspan.Span
	for _, s := range r.Stopped() {
		if s.Kind() == k {
			out = append(out, s)
		}
	}
	return out
}

func discardLogger(t *testing.T) xlog.Logger {
	t.Helper()
	l, _, err := xlog.New().SetOutput(io.Discard).Build()
	require.NoError(t, err)
	return l
}

// newPropagator 创建使用私有注册表的 Propagator，mutate 用于调整默认配置。
func newPropagator(t *testing.T, mutate func(*xprop.Options), extra ...xprop.Option) (*xprop.Propagator, *recorder) {
	t.Helper()
	reg := xspan.NewRegistry()
	rec := &recorder{}
	reg.Register(rec)

	o := xprop.DefaultOptions()
	if mutate != nil {
		mutate(&o)
	}
	opts := append([]xprop.Option{
		xprop.WithOptions(o),
		xprop.WithTracer(xspan.NewTracer(xspan.WithRegistry(reg))),
		xprop.WithLogger(discardLogger(t)),
	}, extra...)
	p, err := xprop.New(opts...)
	require.NoError(t, err)
	return p, rec
}
