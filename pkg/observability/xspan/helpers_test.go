package xspan_test

import (
	"sync"
	"testing"

	"github.com/omeyang/xcorr/pkg/observability/xspan"
)

// recorder 记录结束的 span，用于断言层级关系。
type recorder struct {
	mu      sync.Mutex
	started []*xspan.Span
	stopped []*xspan.Span
}

func (r *recorder) OnStart(s *xspan.Span) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, s)
}

func (r *recorder) OnStop(s *xspan.Span) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = append(r.stopped, s)
}

func (r *recorder) Stopped() []*xspan.Span {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*xspan.Span(nil), r.stopped...)
}

// newTracer 创建带独立注册表与 recorder 的 Tracer。
func newTracer(t *testing.T, opts ...xspan.Option) (*xspan.Tracer, *recorder) {
	t.Helper()
	reg := xspan.NewRegistry()
	rec := &recorder{}
	unregister := reg.Register(rec)
	t.Cleanup(unregister)
	return xspan.NewTracer(append([]xspan.Option{xspan.WithRegistry(reg)}, opts...)...), rec
}
