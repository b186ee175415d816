// Package loader resolves and invokes per-route data loaders.
//
// A loader is a module whose default export is a function producing the
// data a page consumes before rendering. Two calling conventions are
// supported transparently:
//
//	func(loader.Request) (any, error)
//	func(loader.Request) any
//
// Loader failures are never fatal to a request: missing modules,
// returned errors, and panics all degrade to a diagnostic string that
// the renderer places into the page body.
package loader

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cotton-web/cotton/pkg/modules"
	"github.com/cotton-web/cotton/pkg/router"
)

// Request carries per-request context into a loader function.
type Request struct {
	// Route is the matched route key.
	Route string

	// Params are the captured route parameters.
	Params map[string]string

	// HTTP is the incoming request, when the loader runs inside one.
	HTTP *http.Request
}

// Result is the outcome of resolving a loader: either data or a
// human-readable diagnostic, never both.
type Result struct {
	// Err is the diagnostic message when the loader failed; empty on
	// success. It is plain text by contract, suitable for inlining into
	// the rendered page.
	Err string

	// Data is the loader's output. Nil when the route has no loader or
	// the loader failed.
	Data any
}

// OK reports whether the loader succeeded (or was absent).
func (r Result) OK() bool {
	return r.Err == ""
}

// Func is the fallible loader convention.
type Func func(Request) (any, error)

// PlainFunc is the infallible loader convention.
type PlainFunc func(Request) any

// Resolver locates and invokes route loaders through the module
// registry.
type Resolver struct {
	modules *modules.Registry
	logger  *slog.Logger
}

// NewResolver creates a loader resolver.
func NewResolver(registry *modules.Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{modules: registry, logger: logger}
}

// Resolve runs the loader configured for a route. A route without a
// loader resolves immediately to an empty success without touching the
// registry.
func (r *Resolver) Resolve(routeKey string, route router.Route, req Request) Result {
	if route.Loader == "" {
		return Result{}
	}

	path := modules.Normalize(route.Loader)
	module, err := r.modules.Load(path)
	if err != nil {
		r.logger.Error("loader module failed to load",
			"route", routeKey, "loader", route.Loader, "error", err)
		return Result{Err: fmt.Sprintf("Loader '%s' for route '%s' could not be loaded", route.Loader, routeKey)}
	}

	return r.invoke(routeKey, route.Loader, module.Default, req)
}

// invoke calls the loader function, accepting both conventions and
// catching failures uniformly.
func (r *Resolver) invoke(routeKey, loaderPath string, export any, req Request) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("loader panicked",
				"route", routeKey, "loader", loaderPath, "panic", rec)
			result = Result{Err: fmt.Sprintf("Loader for route '%s' failed: %v", routeKey, rec)}
		}
	}()

	switch fn := export.(type) {
	case func(Request) (any, error):
		data, err := fn(req)
		if err != nil {
			r.logger.Error("loader failed",
				"route", routeKey, "loader", loaderPath, "error", err)
			return Result{Err: fmt.Sprintf("Loader for route '%s' failed: %v", routeKey, err)}
		}
		return Result{Data: data}

	case func(Request) any:
		return Result{Data: fn(req)}

	case Func:
		return r.invoke(routeKey, loaderPath, (func(Request) (any, error))(fn), req)

	case PlainFunc:
		return r.invoke(routeKey, loaderPath, (func(Request) any)(fn), req)

	default:
		r.logger.Error("loader default export is not a function",
			"route", routeKey, "loader", loaderPath)
		return Result{Err: fmt.Sprintf("Loader '%s' for route '%s' does not export a loader function", loaderPath, routeKey)}
	}
}
