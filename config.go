package cotton

import (
	"log/slog"

	"github.com/cotton-web/cotton/pkg/router"
)

// CacheControl selects the cache header strategy for static files.
type CacheControl int

const (
	// CacheControlNone disables caching. Used in development.
	CacheControlNone CacheControl = iota

	// CacheControlProduction caches fingerprinted assets aggressively
	// and everything else briefly.
	CacheControlProduction
)

// StaticConfig configures static file serving.
type StaticConfig struct {
	// Dir is the directory containing static files.
	Dir string

	// Prefix is the URL prefix for static files (default: "/").
	Prefix string

	// Headers are extra response headers applied to static responses.
	Headers map[string]string

	// CacheControl is the caching strategy.
	CacheControl CacheControl
}

// Config configures a cotton application.
type Config struct {
	// Routes is the route table, loaded once at startup. The app treats
	// it as read-only.
	Routes *router.Table

	// Static configures static file serving.
	Static StaticConfig

	// Template overrides the built-in document template. It must carry
	// the three placeholder markers.
	Template string

	// GlobalStylesheet is the static-relative path of the global CSS
	// file linked on every page when it exists (default "global.css").
	GlobalStylesheet string

	// DevMode disables static caching and relaxes logging.
	DevMode bool

	// Logger receives structured request and fault logs. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// DefaultGlobalStylesheet is linked on every page when present in the
// static directory.
const DefaultGlobalStylesheet = "global.css"
