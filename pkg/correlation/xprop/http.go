package xprop

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/omeyang/xcorr/pkg/observability/xspan"
	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

// span 标签
const (
	TagHTTPMethod     = "http.method"
	TagHTTPStatusCode = "http.status_code"
	TagRPCMethod      = "rpc.method"
	TagRPCStatusCode  = "rpc.grpc.status_code"
)

// =============================================================================
// 入站
// =============================================================================

// Middleware 返回 net/http 入站中间件。
//
// 每个请求：决策 correlation id 并写入 context，打开服务端 span，
// 在第一次 WriteHeader/Write 之前写入响应头（IncludeInResponse）。
// handler panic 时记录到 span 并继续向上 panic。
func (p *Propagator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := p.resolver.ResolveDisplayName(r)
		if !ok {
			name = fallbackName(r.Method)
		}
		in := p.begin(r.Context(), xtrace.HTTPCarrier(r.Header), name, xspan.KindServer)
		span := in.span
		span.AddTag(TagHTTPMethod, r.Method)

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		if p.echoable(xtrace.HTTPCarrier(w.Header()), in) {
			rw.headerName, rw.headerValue = in.opts.HeaderName, in.decision.CorrelationID
		}

		defer func() {
			if rec := recover(); rec != nil {
				recordPanic(span, rec)
				panic(rec)
			}
		}()

		req := r.WithContext(in.ctx)
		next.ServeHTTP(rw, req)

		if resolved, ok := p.resolver.ResolveDisplayName(req); ok {
			span.SetName(resolved)
		}
		rw.flushHeader()
		finishHTTP(span, rw.status)
	})
}

func finishHTTP(span *xspan.Span, status int) {
	span.AddTag(TagHTTPStatusCode, strconv.Itoa(status))
	if status >= http.StatusInternalServerError {
		span.SetErrorStatus(http.StatusText(status))
	}
	span.Stop()
}

// responseWriter 记录状态码，并在响应头发出前写入关联头。
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	headerName  string
	headerValue string
}

// flushHeader 写入关联头，响应头发出后不再生效。
func (w *responseWriter) flushHeader() {
	if w.wroteHeader || w.headerName == "" {
		return
	}
	w.ResponseWriter.Header().Set(w.headerName, w.headerValue)
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.flushHeader()
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap 供 http.ResponseController 访问底层 writer。
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Flush 实现 http.Flusher。
func (w *responseWriter) Flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack 实现 http.Hijacker。
func (w *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("xprop: underlying ResponseWriter does not support hijacking")
	}
	w.wroteHeader = true
	return h.Hijack()
}

// =============================================================================
// 出站
// =============================================================================

// InjectRequest 将关联信息写入出站 HTTP 请求头。
func (p *Propagator) InjectRequest(req *http.Request) {
	if req == nil {
		return
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	p.Inject(req.Context(), xtrace.HTTPCarrier(req.Header))
}

// Transport 返回出站 RoundTripper：每次调用打开客户端 span，
// 在请求副本上注入关联头（不修改调用方的请求）。base 为 nil 时使用 http.DefaultTransport。
func (p *Propagator) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{p: p, base: base}
}

type transport struct {
	p    *Propagator
	base http.RoundTripper
}

// RoundTrip 实现 http.RoundTripper。span 在响应头返回时结束，不覆盖 body 读取。
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := t.p.startClient(req.Context(), fallbackName(req.Method), xspan.KindClient)
	defer span.Stop()
	span.AddTag(TagHTTPMethod, req.Method)

	out := req.Clone(ctx)
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	t.p.Inject(ctx, xtrace.HTTPCarrier(out.Header))

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddTag(TagHTTPStatusCode, strconv.Itoa(resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetErrorStatus(http.StatusText(resp.StatusCode))
	}
	return resp, nil
}
