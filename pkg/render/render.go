// Package render turns matched routes into HTML documents.
//
// A page module's default export is a component that renders itself to
// an HTML string given the cotton data (route metadata plus loader
// output). The rendered fragment is then embedded into a fixed document
// template by textual placeholder substitution, together with the
// hydration payload and stylesheet links.
package render

import (
	"fmt"
	"log/slog"

	"github.com/cotton-web/cotton/pkg/modules"
	"github.com/cotton-web/cotton/pkg/router"
)

// RouteInfo is the route portion of the cotton data payload.
type RouteInfo struct {
	Key    string            `json:"key"`
	Name   string            `json:"name,omitempty"`
	Group  string            `json:"group,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// Data is the cotton data: the payload handed to the page component and
// serialized into the document for client-side hydration.
type Data struct {
	Route  RouteInfo `json:"route"`
	Loader any       `json:"loader,omitempty"`
}

// Component is the fallible page component convention.
type Component func(Data) (string, error)

// PlainComponent is the infallible page component convention.
type PlainComponent func(Data) string

// Result is the outcome of rendering a page: HTML or a diagnostic.
type Result struct {
	// Err is the diagnostic message when rendering failed; empty on
	// success.
	Err string

	// HTML is the rendered page fragment.
	HTML string
}

// OK reports whether rendering succeeded.
func (r Result) OK() bool {
	return r.Err == ""
}

// Renderer resolves page modules and renders them.
type Renderer struct {
	modules *modules.Registry
	logger  *slog.Logger
}

// NewRenderer creates a page renderer.
func NewRenderer(registry *modules.Registry, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{modules: registry, logger: logger}
}

// RenderRoute renders the page configured for a route. Failures never
// propagate as panics; they come back as diagnostics for the caller to
// inline into the document body.
func (r *Renderer) RenderRoute(routeKey string, route router.Route, data Data) Result {
	if route.Page == "" {
		return Result{Err: fmt.Sprintf("Page not specified in route '%s'", routeKey)}
	}

	path := modules.Normalize(route.Page)
	module, err := r.modules.Load(path)
	if err != nil {
		r.logger.Error("page module failed to load",
			"route", routeKey, "page", route.Page, "error", err)
		return Result{Err: fmt.Sprintf("Page '%s' for route '%s' could not be loaded", route.Page, routeKey)}
	}

	return r.renderComponent(routeKey, route.Page, module.Default, data)
}

func (r *Renderer) renderComponent(routeKey, pagePath string, export any, data Data) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("page render panicked",
				"route", routeKey, "page", pagePath, "panic", rec)
			result = Result{Err: fmt.Sprintf("Page for route '%s' failed to render: %v", routeKey, rec)}
		}
	}()

	switch component := export.(type) {
	case func(Data) (string, error):
		html, err := component(data)
		if err != nil {
			r.logger.Error("page render failed",
				"route", routeKey, "page", pagePath, "error", err)
			return Result{Err: fmt.Sprintf("Page for route '%s' failed to render: %v", routeKey, err)}
		}
		return Result{HTML: html}

	case func(Data) string:
		return Result{HTML: component(data)}

	case Component:
		return r.renderComponent(routeKey, pagePath, (func(Data) (string, error))(component), data)

	case PlainComponent:
		return r.renderComponent(routeKey, pagePath, (func(Data) string)(component), data)

	default:
		r.logger.Error("page default export is not a component",
			"route", routeKey, "page", pagePath)
		return Result{Err: fmt.Sprintf("Page '%s' for route '%s' does not export a page component", pagePath, routeKey)}
	}
}
