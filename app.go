// Package cotton is a small full-stack web framework: a route table
// driving server-side page rendering with per-route data loaders, and a
// convention-based API dispatcher with layered middleware.
//
// Create an App with cotton.New(), register page, loader and API
// modules, and serve it:
//
//	app := cotton.New(cotton.Config{
//	    Routes: table,
//	    Static: cotton.StaticConfig{Dir: "public"},
//	})
//
//	app.RegisterModule("pages/home", &modules.Module{Default: homePage})
//	http.ListenAndServe(":3000", app)
package cotton

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cotton-web/cotton/pkg/api"
	"github.com/cotton-web/cotton/pkg/loader"
	"github.com/cotton-web/cotton/pkg/modules"
	"github.com/cotton-web/cotton/pkg/render"
	"github.com/cotton-web/cotton/pkg/router"
)

// App is the cotton application entry point. It wraps the route
// matcher, loader resolver, page renderer, API dispatcher and static
// file serving into a single http.Handler.
type App struct {
	table    *router.Table
	registry *modules.Registry
	loader   *loader.Resolver
	renderer *render.Renderer
	api      *api.Dispatcher

	staticDir    string
	staticPrefix string
	staticFS     http.FileSystem

	config Config
	logger *slog.Logger
}

// New creates a cotton application from the given configuration.
func New(cfg Config) *App {
	if cfg.Routes == nil {
		cfg.Routes = router.NewTable()
	}
	if cfg.Static.Prefix == "" {
		cfg.Static.Prefix = "/"
	}
	if cfg.GlobalStylesheet == "" {
		cfg.GlobalStylesheet = DefaultGlobalStylesheet
	}
	if cfg.DevMode {
		cfg.Static.CacheControl = CacheControlNone
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := modules.NewRegistry()
	app := &App{
		table:        cfg.Routes,
		registry:     registry,
		loader:       loader.NewResolver(registry, logger),
		renderer:     render.NewRenderer(registry, logger),
		api:          api.NewDispatcher(registry, logger),
		staticDir:    cfg.Static.Dir,
		staticPrefix: cfg.Static.Prefix,
		config:       cfg,
		logger:       logger,
	}

	if cfg.Static.Dir != "" {
		app.staticFS = http.Dir(cfg.Static.Dir)
	}

	return app
}

// Register binds a module factory to a module path.
func (a *App) Register(path string, factory modules.Factory) {
	a.registry.Register(path, factory)
}

// RegisterModule binds an already-constructed module to a module path.
func (a *App) RegisterModule(path string, m *modules.Module) {
	a.registry.RegisterModule(path, m)
}

// Modules returns the module registry for advanced wiring.
func (a *App) Modules() *modules.Registry {
	return a.registry
}

// Routes returns the route table.
func (a *App) Routes() *router.Table {
	return a.table
}

// Config returns the app configuration.
func (a *App) Config() Config {
	return a.config
}

// Handler returns the App as an http.Handler.
func (a *App) Handler() http.Handler {
	return a
}

// ServeHTTP implements http.Handler. Static files are tried first, then
// /api paths go to the API dispatcher, and everything else through the
// route table.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if a.staticFS != nil && a.shouldServeStatic(path) {
		a.serveStatic(w, r)
		return
	}

	if path == "/api" || strings.HasPrefix(path, "/api/") {
		a.api.ServeHTTP(w, r)
		return
	}

	match := a.table.Match(path)
	if match.Empty() {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "Not Found")
		return
	}

	a.renderPage(w, r, match)
}

// renderPage runs the loader/render pipeline for a matched route and
// writes the composed document. Loader and page faults degrade to an
// inline diagnostic in the body; the response is still a 200.
func (a *App) renderPage(w http.ResponseWriter, r *http.Request, match router.Match) {
	route, _ := a.table.Get(match.Route)

	data := render.Data{
		Route: render.RouteInfo{
			Key:    match.Route,
			Name:   route.Name,
			Group:  route.Group,
			Params: match.Params,
		},
	}

	loaded := a.loader.Resolve(match.Route, route, loader.Request{
		Route:  match.Route,
		Params: match.Params,
		HTTP:   r,
	})
	data.Loader = loaded.Data

	rendered := a.renderer.RenderRoute(match.Route, route, data)

	// The loader diagnostic wins when both stages failed; either
	// failure suppresses hydration.
	body := rendered.HTML
	switch {
	case !loaded.OK():
		body = loaded.Err
	case !rendered.OK():
		body = rendered.Err
	}

	doc := render.Document{
		Template:    a.config.Template,
		Stylesheets: a.stylesheets(route),
		Hydrate:     loaded.OK() && rendered.OK(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, doc.Render(data, body))
}

// stylesheets collects the global stylesheet and the page's module
// stylesheet, each linked only when the file actually exists in the
// static directory.
func (a *App) stylesheets(route router.Route) []string {
	var hrefs []string
	if a.staticHas(a.config.GlobalStylesheet) {
		hrefs = append(hrefs, a.staticHref(a.config.GlobalStylesheet))
	}
	if route.Page != "" {
		moduleCSS := modules.Normalize(route.Page) + ".css"
		if a.staticHas(moduleCSS) {
			hrefs = append(hrefs, a.staticHref(moduleCSS))
		}
	}
	return hrefs
}
