package xprop

import (
	"github.com/gin-gonic/gin"

	"github.com/omeyang/xcorr/pkg/observability/xspan"
	"github.com/omeyang/xcorr/pkg/observability/xtrace"
)

// GinMiddleware 返回 gin 入站中间件，语义与 Middleware 相同。
//
// span 名使用 gin 的路由模板（c.FullPath），未匹配路由时为 "HTTP <method>"。
// c.Errors 中的最后一个错误会记录到 span。
func (p *Propagator) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := fallbackName(c.Request.Method)
		if path := c.FullPath(); path != "" {
			name = c.Request.Method + " " + path
		}
		in := p.begin(c.Request.Context(), xtrace.HTTPCarrier(c.Request.Header), name, xspan.KindServer)
		span := in.span
		span.AddTag(TagHTTPMethod, c.Request.Method)
		if p.echoable(xtrace.HTTPCarrier(c.Writer.Header()), in) {
			c.Header(in.opts.HeaderName, in.decision.CorrelationID)
		}
		c.Request = c.Request.WithContext(in.ctx)

		defer func() {
			if rec := recover(); rec != nil {
				recordPanic(span, rec)
				panic(rec)
			}
		}()
		c.Next()

		if err := c.Errors.Last(); err != nil {
			span.SetError(err.Err)
		}
		finishHTTP(span, c.Writer.Status())
	}
}
