package render

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

// Placeholder markers substituted into the document template.
const (
	ScriptsMarker = "<!--cotton:scripts-->"
	StylesMarker  = "<!--cotton:styles-->"
	BodyMarker    = "<!--cotton:body-->"
)

// HydrationGlobal is the window property the serialized cotton data is
// assigned to.
const HydrationGlobal = "__COTTON__"

//go:embed document.html
var defaultTemplate string

// DefaultTemplate returns the built-in document template.
func DefaultTemplate() string {
	return defaultTemplate
}

// Document composes a full HTML document around a rendered page body.
type Document struct {
	// Template is the document template carrying the three placeholder
	// markers. The built-in template is used when empty.
	Template string

	// Stylesheets are hrefs rendered as <link rel="stylesheet"> tags.
	Stylesheets []string

	// Hydrate controls whether the cotton data script block is
	// injected. It is suppressed when the loader or the render failed.
	Hydrate bool
}

// Render substitutes the body, stylesheet links, and hydration script
// into the template.
func (d Document) Render(data Data, body string) string {
	template := d.Template
	if template == "" {
		template = defaultTemplate
	}

	var scripts string
	if d.Hydrate {
		if payload, err := json.Marshal(data); err == nil {
			// json.Marshal escapes <, > and & so the payload cannot
			// terminate the script element early.
			scripts = fmt.Sprintf("<script>window.%s = %s;</script>", HydrationGlobal, payload)
		}
	}

	var styles strings.Builder
	for i, href := range d.Stylesheets {
		if i > 0 {
			styles.WriteString("\n  ")
		}
		fmt.Fprintf(&styles, `<link rel="stylesheet" href="%s">`, href)
	}

	out := strings.Replace(template, StylesMarker, styles.String(), 1)
	out = strings.Replace(out, BodyMarker, body, 1)
	out = strings.Replace(out, ScriptsMarker, scripts, 1)
	return out
}
