package xprop

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/mux"
)

// NameResolver 为 HTTP 入站 span 提供展示名（通常是路由模板）。
//
// 返回 false 时使用 "HTTP <method>"。中间件在请求处理前后各调用一次，
// 以便支持路由在 next 内部才完成匹配的框架。
type NameResolver interface {
	ResolveDisplayName(r *http.Request) (string, bool)
}

// NameResolverFunc 函数适配器。
type NameResolverFunc func(r *http.Request) (string, bool)

// ResolveDisplayName 实现 NameResolver。
func (f NameResolverFunc) ResolveDisplayName(r *http.Request) (string, bool) { return f(r) }

// NoopResolver 总是返回 false。
type NoopResolver struct{}

// ResolveDisplayName 实现 NameResolver。
func (NoopResolver) ResolveDisplayName(*http.Request) (string, bool) { return "", false }

// ChiRouteResolver 使用 chi 的路由模板，如 "GET /orders/{id}"。
//
// chi 在 next 内部完成匹配，因此只有请求处理之后的那次调用能拿到模板。
type ChiRouteResolver struct{}

// ResolveDisplayName 实现 NameResolver。
func (ChiRouteResolver) ResolveDisplayName(r *http.Request) (string, bool) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "", false
	}
	pattern := rctx.RoutePattern()
	if pattern == "" {
		return "", false
	}
	return r.Method + " " + pattern, true
}

// MuxRouteResolver 使用 gorilla/mux 的路由模板。
// 通过 router.Use 挂载时路由已匹配，第一次调用即可拿到模板。
type MuxRouteResolver struct{}

// ResolveDisplayName 实现 NameResolver。
func (MuxRouteResolver) ResolveDisplayName(r *http.Request) (string, bool) {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "", false
	}
	tpl, err := route.GetPathTemplate()
	if err != nil || tpl == "" {
		return "", false
	}
	return r.Method + " " + tpl, true
}

func fallbackName(method string) string {
	return "HTTP " + method
}
