package loader

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cotton-web/cotton/pkg/modules"
	"github.com/cotton-web/cotton/pkg/router"
)

func newTestResolver() (*Resolver, *modules.Registry) {
	registry := modules.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewResolver(registry, logger), registry
}

func TestResolveNoLoaderConfigured(t *testing.T) {
	registry := modules.NewRegistry()
	loads := 0
	registry.Register("pages/home.loader", func() (*modules.Module, error) {
		loads++
		return &modules.Module{}, nil
	})
	r := NewResolver(registry, slog.New(slog.NewTextHandler(io.Discard, nil)))

	result := r.Resolve("/", router.Route{}, Request{Route: "/"})
	if !result.OK() {
		t.Fatalf("Err = %q, want empty", result.Err)
	}
	if result.Data != nil {
		t.Errorf("Data = %v, want nil", result.Data)
	}
	if loads != 0 {
		t.Errorf("registry was touched %d times for a loaderless route", loads)
	}
}

func TestResolvePlainLoader(t *testing.T) {
	r, registry := newTestResolver()
	registry.RegisterModule("pages/answer.loader", &modules.Module{
		Default: func(Request) any { return 42 },
	})

	result := r.Resolve("/answer", router.Route{Loader: "pages/answer.loader"}, Request{})
	if !result.OK() {
		t.Fatalf("Err = %q", result.Err)
	}
	if result.Data != 42 {
		t.Errorf("Data = %v, want 42", result.Data)
	}
}

func TestResolveFallibleLoader(t *testing.T) {
	r, registry := newTestResolver()
	registry.RegisterModule("pages/user.loader", &modules.Module{
		Default: func(req Request) (any, error) {
			return map[string]string{"id": req.Params["id"]}, nil
		},
	})

	result := r.Resolve("/user/:id",
		router.Route{Loader: "pages/user.loader"},
		Request{Route: "/user/:id", Params: map[string]string{"id": "42"}})
	if !result.OK() {
		t.Fatalf("Err = %q", result.Err)
	}
	data, ok := result.Data.(map[string]string)
	if !ok || data["id"] != "42" {
		t.Errorf("Data = %v", result.Data)
	}
}

func TestResolveLoaderError(t *testing.T) {
	r, registry := newTestResolver()
	registry.RegisterModule("pages/bad.loader", &modules.Module{
		Default: func(Request) (any, error) { return nil, errors.New("boom") },
	})

	result := r.Resolve("/bad", router.Route{Loader: "pages/bad.loader"}, Request{})
	if result.OK() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Err, "/bad") {
		t.Errorf("diagnostic %q should contain the route", result.Err)
	}
	if !strings.Contains(result.Err, "boom") {
		t.Errorf("diagnostic %q should contain the cause", result.Err)
	}
	if result.Data != nil {
		t.Errorf("Data = %v, want nil", result.Data)
	}
}

func TestResolveLoaderPanicCaughtUniformly(t *testing.T) {
	// Both conventions degrade panics to diagnostics; neither crashes
	// the request.
	r, registry := newTestResolver()
	registry.RegisterModule("pages/p1.loader", &modules.Module{
		Default: func(Request) any { panic("plain panic") },
	})
	registry.RegisterModule("pages/p2.loader", &modules.Module{
		Default: func(Request) (any, error) { panic("fallible panic") },
	})

	for _, tt := range []struct{ route, loader, want string }{
		{"/p1", "pages/p1.loader", "plain panic"},
		{"/p2", "pages/p2.loader", "fallible panic"},
	} {
		result := r.Resolve(tt.route, router.Route{Loader: tt.loader}, Request{})
		if result.OK() {
			t.Fatalf("%s: expected failure", tt.route)
		}
		if !strings.Contains(result.Err, tt.route) || !strings.Contains(result.Err, tt.want) {
			t.Errorf("%s: diagnostic = %q", tt.route, result.Err)
		}
	}
}

func TestResolveMissingModule(t *testing.T) {
	r, _ := newTestResolver()

	result := r.Resolve("/ghost", router.Route{Loader: "pages/ghost.loader"}, Request{})
	if result.OK() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Err, "/ghost") || !strings.Contains(result.Err, "pages/ghost.loader") {
		t.Errorf("diagnostic = %q", result.Err)
	}
}

func TestResolveNonFunctionExport(t *testing.T) {
	r, registry := newTestResolver()
	registry.RegisterModule("pages/odd.loader", &modules.Module{Default: "not a function"})

	result := r.Resolve("/odd", router.Route{Loader: "pages/odd.loader"}, Request{})
	if result.OK() {
		t.Fatal("expected failure")
	}
}

func TestResolveNormalizesPath(t *testing.T) {
	// A loader configured with a source extension resolves to the same
	// module as its extensionless registration.
	r, registry := newTestResolver()
	registry.RegisterModule("pages/home", &modules.Module{
		Default: func(Request) any { return "ok" },
	})

	result := r.Resolve("/", router.Route{Loader: "pages/home.js"}, Request{})
	if !result.OK() {
		t.Fatalf("Err = %q", result.Err)
	}
	if result.Data != "ok" {
		t.Errorf("Data = %v", result.Data)
	}
}

func TestNamedFuncTypesSupported(t *testing.T) {
	r, registry := newTestResolver()
	registry.RegisterModule("pages/typed.loader", &modules.Module{
		Default: Func(func(Request) (any, error) { return "typed", nil }),
	})

	result := r.Resolve("/typed", router.Route{Loader: "pages/typed.loader"}, Request{})
	if !result.OK() || result.Data != "typed" {
		t.Errorf("result = %+v", result)
	}
}
