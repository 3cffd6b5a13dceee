package xspan

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricSpanTotal    = "xcorr.span.total"
	metricSpanDuration = "xcorr.span.duration"
)

// MetricsObserver 以 OpenTelemetry 指标记录 span 数量与耗时。
//
// 标签只包含 kind 与 status，span 名称可能带有路径参数，不作为标签以免基数失控。
type MetricsObserver struct {
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

type metricsConfig struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
}

// MetricsOption 定义 MetricsObserver 的配置选项。
type MetricsOption func(*metricsConfig)

// WithMeterProvider 设置 MeterProvider，默认使用全局 otel.GetMeterProvider()。
func WithMeterProvider(provider metric.MeterProvider) MetricsOption {
	return func(cfg *metricsConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// WithMeterName 设置 meter 名称。
func WithMeterName(name string) MetricsOption {
	return func(cfg *metricsConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// NewMetricsObserver 创建 MetricsObserver。
func NewMetricsObserver(opts ...MetricsOption) (*MetricsObserver, error) {
	cfg := &metricsConfig{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	total, err := meter.Int64Counter(
		metricSpanTotal,
		metric.WithDescription("finished spans"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xspan: create counter failed: %w", err)
	}
	duration, err := meter.Float64Histogram(
		metricSpanDuration,
		metric.WithDescription("span duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("xspan: create histogram failed: %w", err)
	}
	return &MetricsObserver{total: total, duration: duration}, nil
}

// OnStart 实现 Observer。
func (m *MetricsObserver) OnStart(*Span) {}

// OnStop 实现 Observer。
func (m *MetricsObserver) OnStop(s *Span) {
	if s == nil {
		return
	}
	status, _ := s.Status()
	opt := metric.WithAttributes(
		attribute.String("kind", s.Kind().String()),
		attribute.String("status", status.String()),
	)
	// 请求 context 在这里已经不可用，指标记录不依赖取消信号
	ctx := context.Background()
	m.total.Add(ctx, 1, opt)
	m.duration.Record(ctx, s.Duration().Seconds(), opt)
}
