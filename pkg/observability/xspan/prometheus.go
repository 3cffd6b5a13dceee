package xspan

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver 以 Prometheus 指标记录 span 数量与耗时。
type PrometheusObserver struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusObserver 创建并注册指标。reg 为 nil 时使用 prometheus.DefaultRegisterer。
//
// 同一个 Registerer 上重复创建时复用已注册的采集器。
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "xcorr",
		Name:      "spans_total",
		Help:      "Number of finished spans.",
	}, []string{"kind", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "xcorr",
		Name:      "span_duration_seconds",
		Help:      "Span duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind", "status"})

	var err error
	if total, err = registerOrReuse(reg, total); err != nil {
		return nil, err
	}
	if duration, err = registerOrReuse(reg, duration); err != nil {
		return nil, err
	}
	return &PrometheusObserver{total: total, duration: duration}, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("xspan: register prometheus collector: %w", err)
	}
	return c, nil
}

// OnStart 实现 Observer。
func (p *PrometheusObserver) OnStart(*Span) {}

// OnStop 实现 Observer。
func (p *PrometheusObserver) OnStop(s *Span) {
	if s == nil {
		return
	}
	status, _ := s.Status()
	kind := s.Kind().String()
	p.total.WithLabelValues(kind, status.String()).Inc()
	p.duration.WithLabelValues(kind, status.String()).Observe(s.Duration().Seconds())
}
