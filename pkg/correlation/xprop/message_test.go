package xprop_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xcorr/pkg/context/xctx"
	"github.com/omeyang/xcorr/pkg/correlation/xprop"
	"github.com/omeyang/xcorr/pkg/observability/xspan"
	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

func TestMessage_ProducerToConsumer(t *testing.T) {
	p, rec := newPropagator(t, nil)

	// 生产端：处于一个入站请求中
	ctx, span, d := p.Begin(context.Background(), xtrace.MapCarrier{}, "produce")
	headers := map[string]string{}
	p.InjectMessage(ctx, headers)
	span.Stop()

	assert.Equal(t, d.CorrelationID, headers[xprop.DefaultHeaderName])

	err := p.HandleMessage(context.Background(), headers, "orders.consume", func(ctx context.Context) error {
		id, _ := xctx.CorrelationID(ctx)
		assert.Equal(t, d.CorrelationID, id)
		assert.Equal(t, span.Context().TraceID, xctx.TraceID(ctx))
		return nil
	})
	require.NoError(t, err)

	consumers := rec.byKind(xspan.KindConsumer)
	require.Len(t, consumers, 1)
	assert.Equal(t, span.Context().SpanID, consumers[0].Context().ParentSpanID)
}

func TestHandleMessage_ErrorReturnedUnchanged(t *testing.T) {
	p, rec := newPropagator(t, nil)
	wantErr := errors.New("poison message")

	err := p.HandleMessage(context.Background(), nil, "consume", func(context.Context) error { return wantErr })
	assert.Same(t, wantErr, err)

	spans := rec.Stopped()
	require.Len(t, spans, 1)
	st, _ := spans[0].Status()
	assert.Equal(t, xspan.StatusError, st)
}

func TestHandleMessage_Panic(t *testing.T) {
	p, rec := newPropagator(t, nil)
	assert.Panics(t, func() {
		_ = p.HandleMessage(context.Background(), nil, "consume", func(context.Context) error { panic("bad") })
	})
	require.Len(t, rec.Stopped(), 1)
}

func TestInjectMessage_NilHeaders(t *testing.T) {
	p, _ := newPropagator(t, nil)
	ctx, err := xctx.WithCorrelationID(context.Background(), "m-1")
	require.NoError(t, err)
	assert.NotPanics(t, func() { p.InjectMessage(ctx, nil) })
}

func TestHandleMessage_UnrepresentableIDKeepsOutboundCallsWorking(t *testing.T) {
	p, _ := newPropagator(t, nil)

	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Values(xprop.DefaultHeaderName)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	client := &http.Client{Transport: p.Transport(nil)}

	headers := map[string]string{xprop.DefaultHeaderName: "order\r\n42"}
	err := p.HandleMessage(context.Background(), headers, "orders.consume", func(ctx context.Context) error {
		id, _ := xctx.CorrelationID(ctx)
		assert.Equal(t, "order\r\n42", id)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		return resp.Body.Close()
	})
	require.NoError(t, err)
	assert.Empty(t, seen)
}
