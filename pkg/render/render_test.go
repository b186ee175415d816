package render

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cotton-web/cotton/pkg/modules"
	"github.com/cotton-web/cotton/pkg/router"
)

func newTestRenderer() (*Renderer, *modules.Registry) {
	registry := modules.NewRegistry()
	return NewRenderer(registry, slog.New(slog.NewTextHandler(io.Discard, nil))), registry
}

func TestRenderRouteNoPage(t *testing.T) {
	r, _ := newTestRenderer()

	result := r.RenderRoute("/orphan", router.Route{}, Data{})
	if result.OK() {
		t.Fatal("expected failure")
	}
	want := "Page not specified in route '/orphan'"
	if result.Err != want {
		t.Errorf("Err = %q, want %q", result.Err, want)
	}
}

func TestRenderRoutePlainComponent(t *testing.T) {
	r, registry := newTestRenderer()
	registry.RegisterModule("pages/home", &modules.Module{
		Default: func(data Data) string {
			return "<h1>route " + data.Route.Key + "</h1>"
		},
	})

	result := r.RenderRoute("/", router.Route{Page: "pages/home"}, Data{Route: RouteInfo{Key: "/"}})
	if !result.OK() {
		t.Fatalf("Err = %q", result.Err)
	}
	if result.HTML != "<h1>route /</h1>" {
		t.Errorf("HTML = %q", result.HTML)
	}
}

func TestRenderRouteComponentReceivesLoaderData(t *testing.T) {
	r, registry := newTestRenderer()
	registry.RegisterModule("pages/user", &modules.Module{
		Default: func(data Data) (string, error) {
			name, _ := data.Loader.(string)
			return "<p>" + name + "</p>", nil
		},
	})

	result := r.RenderRoute("/user/:id", router.Route{Page: "pages/user"}, Data{Loader: "ada"})
	if !result.OK() {
		t.Fatalf("Err = %q", result.Err)
	}
	if result.HTML != "<p>ada</p>" {
		t.Errorf("HTML = %q", result.HTML)
	}
}

func TestRenderRouteComponentError(t *testing.T) {
	r, registry := newTestRenderer()
	registry.RegisterModule("pages/bad", &modules.Module{
		Default: func(Data) (string, error) { return "", errors.New("render boom") },
	})

	result := r.RenderRoute("/bad", router.Route{Page: "pages/bad"}, Data{})
	if result.OK() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Err, "/bad") || !strings.Contains(result.Err, "render boom") {
		t.Errorf("Err = %q", result.Err)
	}
}

func TestRenderRouteComponentPanic(t *testing.T) {
	r, registry := newTestRenderer()
	registry.RegisterModule("pages/panic", &modules.Module{
		Default: func(Data) string { panic("nope") },
	})

	result := r.RenderRoute("/panic", router.Route{Page: "pages/panic"}, Data{})
	if result.OK() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Err, "/panic") {
		t.Errorf("Err = %q", result.Err)
	}
}

func TestRenderRouteMissingModule(t *testing.T) {
	r, _ := newTestRenderer()

	result := r.RenderRoute("/ghost", router.Route{Page: "pages/ghost"}, Data{})
	if result.OK() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Err, "pages/ghost") {
		t.Errorf("Err = %q", result.Err)
	}
}

func TestRenderRouteNonComponentExport(t *testing.T) {
	r, registry := newTestRenderer()
	registry.RegisterModule("pages/odd", &modules.Module{Default: 17})

	result := r.RenderRoute("/odd", router.Route{Page: "pages/odd"}, Data{})
	if result.OK() {
		t.Fatal("expected failure")
	}
}

func TestDocumentRender(t *testing.T) {
	doc := Document{
		Stylesheets: []string{"/global.css", "/pages/home.css"},
		Hydrate:     true,
	}
	data := Data{
		Route:  RouteInfo{Key: "/user/:id", Params: map[string]string{"id": "42"}},
		Loader: map[string]string{"name": "ada"},
	}

	html := doc.Render(data, "<h1>hi</h1>")

	if !strings.Contains(html, "<h1>hi</h1>") {
		t.Error("body missing")
	}
	if !strings.Contains(html, `href="/global.css"`) || !strings.Contains(html, `href="/pages/home.css"`) {
		t.Error("stylesheet links missing")
	}
	if !strings.Contains(html, "window."+HydrationGlobal) {
		t.Error("hydration script missing")
	}
	if !strings.Contains(html, `"id":"42"`) {
		t.Error("hydration payload missing route params")
	}
	for _, marker := range []string{ScriptsMarker, StylesMarker, BodyMarker} {
		if strings.Contains(html, marker) {
			t.Errorf("marker %q left in output", marker)
		}
	}
}

func TestDocumentHydrationSuppressed(t *testing.T) {
	doc := Document{Hydrate: false}
	html := doc.Render(Data{}, "Loader for route '/x' failed: boom")

	if strings.Contains(html, "window."+HydrationGlobal) {
		t.Error("hydration script present despite suppression")
	}
	if !strings.Contains(html, "Loader for route '/x' failed: boom") {
		t.Error("diagnostic body missing")
	}
}

func TestDocumentHydrationPayloadEscaped(t *testing.T) {
	doc := Document{Hydrate: true}
	html := doc.Render(Data{Loader: "</script><script>alert(1)"}, "")

	if strings.Contains(html, "</script><script>alert(1)") {
		t.Error("payload not escaped")
	}
}

func TestDocumentCustomTemplate(t *testing.T) {
	doc := Document{Template: "A" + BodyMarker + "B" + StylesMarker + "C" + ScriptsMarker + "D"}
	html := doc.Render(Data{}, "body")

	if html != "AbodyBCD" {
		t.Errorf("html = %q", html)
	}
}
