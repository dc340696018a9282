package server

import (
	"net/http"
	"sync"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for routing, with method-qualified patterns.
type BasicRouter struct {
	mux         *http.ServeMux
	gate        *Gate
	middlewares []Middleware
	once        sync.Once
	handler     http.Handler
}

// NewBasicRouter creates a new [BasicRouter] instance.
//
// Routes registered through [BasicRouter.Handler] pass through gate before dispatch.
func NewBasicRouter(gate *Gate) *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		gate:        gate,
		middlewares: []Middleware{},
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
//
// Middleware wraps the whole mux, so it must be added before the first request is served.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers an [http.Handler] for the specified HTTP method and path.
//
// Other methods on the same path receive 405 from the mux.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(pattern(method, path), handler)
}

// Handler registers every [Route] of a [Handler] behind the router's [Gate].
func (r *BasicRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.Handle(route.Method, route.Path, r.gate.Wrap(route.Handle))
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.once.Do(func() { r.handler = r.Apply(r.mux) })
	r.handler.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}

// pattern builds a [http.ServeMux] pattern. The root path matches only itself.
func pattern(method, path string) string {
	if path == "/" {
		path = "/{$}"
	}
	if method == "" {
		return path
	}
	return method + " " + path
}
