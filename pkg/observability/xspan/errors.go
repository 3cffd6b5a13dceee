package xspan

import "errors"

var (
	// ErrNilProcessor OTel SpanProcessor 为 nil。
	ErrNilProcessor = errors.New("xspan: nil span processor")

	// ErrNilExporter OTel SpanExporter 为 nil。
	ErrNilExporter = errors.New("xspan: nil span exporter")
)
