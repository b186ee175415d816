// Package api implements cotton's API dispatcher: the mapping from
// /api/... request paths to endpoint modules, with two tiers of
// middleware gating handler invocation.
//
// The last path segment names an exported endpoint inside the module
// resolved from the preceding segments: a request to /api/users/get
// loads the "api/users" module and dispatches to its "get" export. A
// module's default export, when present, is module-level middleware
// applied before any endpoint in the file; an endpoint may carry its
// own middleware on top. Endpoint handlers write their own success
// response; the dispatcher only writes error responses.
package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cotton-web/cotton/pkg/modules"
)

// Root is the module path prefix API modules live under.
const Root = "api"

// allowedMethods is advertised on every API response.
const allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"

// Handler is the fallible endpoint handler convention.
type Handler func(http.ResponseWriter, *http.Request) error

// PlainHandler is the infallible endpoint handler convention.
type PlainHandler func(http.ResponseWriter, *http.Request)

// Endpoint is a named export of an API module.
type Endpoint struct {
	// Method restricts the endpoint to one HTTP method, compared
	// case-insensitively. Empty accepts any method.
	Method string

	// Middleware is endpoint-level middleware, evaluated after the
	// module's default middleware.
	Middleware any

	// Response is the handler, in either handler convention.
	Response any
}

// Dispatcher resolves /api requests to endpoint modules and invokes
// their handlers.
type Dispatcher struct {
	modules *modules.Registry
	logger  *slog.Logger
}

// NewDispatcher creates an API dispatcher backed by a module registry.
func NewDispatcher(registry *modules.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{modules: registry, logger: logger}
}

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", allowedMethods)

	modulePath, methodName, ok := splitPath(r.URL.Path)
	if !ok {
		plainError(w, http.StatusBadRequest, "Invalid API path.")
		return
	}

	module, err := d.modules.Load(modulePath)
	if err != nil {
		d.logger.Error("api module failed to load",
			"module", modulePath, "error", err)
		plainError(w, http.StatusInternalServerError, "Could not load the API endpoint module.")
		return
	}

	// Primary (module-level) middleware. Its absence is not an error.
	if module.Default != nil {
		decision, err := Evaluate(r, module.Default)
		if err != nil {
			d.logger.Error("api module middleware failed",
				"module", modulePath, "error", err)
			plainError(w, http.StatusInternalServerError, "Middleware failed.")
			return
		}
		if !decision.Allow {
			writeDeny(w, decision)
			return
		}
	}

	export := module.Export(methodName)
	if export == nil {
		d.logger.Error("api endpoint not exported",
			"module", modulePath, "endpoint", methodName)
		plainError(w, http.StatusInternalServerError,
			fmt.Sprintf("'%s' is not defined or exported.", methodName))
		return
	}

	endpoint, ok := asEndpoint(export)
	if !ok {
		d.logger.Error("api export is not an endpoint",
			"module", modulePath, "endpoint", methodName)
		plainError(w, http.StatusInternalServerError,
			fmt.Sprintf("'%s' is not defined or exported.", methodName))
		return
	}

	// A method mismatch is a 404, not a 405. The endpoint exists under
	// a different method, so from this request's point of view there is
	// nothing at this path.
	if endpoint.Method != "" && !strings.EqualFold(endpoint.Method, r.Method) {
		plainError(w, http.StatusNotFound,
			fmt.Sprintf("This endpoint expects %s requests, but the request method was %s.",
				strings.ToUpper(endpoint.Method), r.Method))
		return
	}

	// Secondary (endpoint-level) middleware.
	if endpoint.Middleware != nil {
		decision, err := Evaluate(r, endpoint.Middleware)
		if err != nil {
			d.logger.Error("api endpoint middleware failed",
				"module", modulePath, "endpoint", methodName, "error", err)
			plainError(w, http.StatusInternalServerError, "Middleware failed.")
			return
		}
		if !decision.Allow {
			writeDeny(w, decision)
			return
		}
	}

	if endpoint.Response == nil {
		plainError(w, http.StatusNotFound, "No response handler is defined for this endpoint.")
		return
	}

	if err := d.invoke(endpoint.Response, w, r); err != nil {
		d.logger.Error("api handler failed",
			"module", modulePath, "endpoint", methodName, "error", err)
		plainError(w, http.StatusInternalServerError, "The endpoint handler failed.")
	}
}

// invoke calls the response handler, accepting both conventions and
// converting panics into errors.
func (d *Dispatcher) invoke(response any, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()

	switch handler := response.(type) {
	case func(http.ResponseWriter, *http.Request) error:
		return handler(w, r)
	case Handler:
		return handler(w, r)
	case func(http.ResponseWriter, *http.Request):
		handler(w, r)
		return nil
	case PlainHandler:
		handler(w, r)
		return nil
	case http.HandlerFunc:
		handler(w, r)
		return nil
	default:
		return fmt.Errorf("response handler has unsupported type %T", response)
	}
}

func asEndpoint(export any) (*Endpoint, bool) {
	switch e := export.(type) {
	case *Endpoint:
		return e, e != nil
	case Endpoint:
		return &e, true
	default:
		return nil, false
	}
}

// writeDeny writes a middleware denial using the decision's code,
// message and content type.
func writeDeny(w http.ResponseWriter, d Decision) {
	contentType := d.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}
	code := d.Code
	if code == 0 {
		code = http.StatusUnauthorized
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(code)
	io.WriteString(w, d.Message)
}

func plainError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	io.WriteString(w, message)
}

// splitPath resolves an /api/... URL path into the module path and the
// endpoint (method) name. Paths with empty or dot segments, paths
// outside the api root, and paths without a method segment are
// rejected.
func splitPath(urlPath string) (modulePath, methodName string, ok bool) {
	trimmed := strings.Trim(urlPath, "/")
	if trimmed == "" {
		return "", "", false
	}

	segments := strings.Split(trimmed, "/")
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return "", "", false
		}
	}

	if segments[0] != Root || len(segments) < 2 {
		return "", "", false
	}

	methodName = segments[len(segments)-1]
	modulePath = strings.Join(segments[:len(segments)-1], "/")
	return modulePath, methodName, true
}
