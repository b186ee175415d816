package router

import (
	"fmt"
	"regexp"
	"strings"
)

// Route is a single route definition from the route table.
type Route struct {
	// Group is an optional route group label, carried into the page
	// payload for client-side use.
	Group string `json:"group,omitempty" yaml:"group,omitempty"`

	// Name is an optional human-readable route name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Page is the module path of the page component rendered for this
	// route, relative to the src root (e.g. "pages/user").
	Page string `json:"page,omitempty" yaml:"page,omitempty"`

	// Loader is the module path of the data loader run before the page
	// renders. By convention it carries a ".loader" suffix.
	Loader string `json:"loader,omitempty" yaml:"loader,omitempty"`
}

// Match is the outcome of matching a request path against the table.
// The zero value means no route matched.
type Match struct {
	// Route is the matched route key, e.g. "/user/:id".
	Route string

	// Params maps parameter names to the captured path segments,
	// e.g. {"id": "42"} for /user/42.
	Params map[string]string
}

// Empty reports whether no route matched.
func (m Match) Empty() bool {
	return m.Route == ""
}

// Table is an ordered route table. It is populated once at startup and
// read-only afterwards; Match may be called concurrently.
type Table struct {
	keys     []string
	routes   map[string]Route
	patterns map[string]*regexp.Regexp
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{
		routes:   make(map[string]Route),
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Add registers a route under the given key. Keys must start with "/"
// and be unique; declaration order decides ties between overlapping
// patterns.
func (t *Table) Add(key string, route Route) error {
	if !strings.HasPrefix(key, "/") {
		return fmt.Errorf("route key %q must start with '/'", key)
	}
	if _, exists := t.routes[key]; exists {
		return fmt.Errorf("duplicate route key %q", key)
	}

	pattern, err := compilePattern(key, false)
	if err != nil {
		return fmt.Errorf("route key %q: %w", key, err)
	}

	t.keys = append(t.keys, key)
	t.routes[key] = route
	t.patterns[key] = pattern
	return nil
}

// Get returns the route definition for a key.
func (t *Table) Get(key string) (Route, bool) {
	route, ok := t.routes[key]
	return route, ok
}

// Keys returns the route keys in declaration order.
func (t *Table) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Len returns the number of routes in the table.
func (t *Table) Len() int {
	return len(t.keys)
}

// Match resolves a request path to the first declared route whose
// pattern matches, extracting named parameters. The zero Match is
// returned when nothing matches.
func (t *Table) Match(path string) Match {
	normalized := ensureTrailingSlash(path)

	for _, key := range t.keys {
		if t.patterns[key].MatchString(normalized) {
			return Match{
				Route:  key,
				Params: extractParams(key, normalized),
			}
		}
	}
	return Match{}
}

// paramToken matches a ":name" parameter token within a route key.
var paramToken = regexp.MustCompile(`:([^/]+)`)

// ensureTrailingSlash normalizes a path so that segment boundaries line
// up during matching ("/users" and "/users/" are the same route).
func ensureTrailingSlash(path string) string {
	if !strings.HasSuffix(path, "/") {
		return path + "/"
	}
	return path
}

// compilePattern turns a route key into an anchored, case-insensitive
// matching pattern. Parameter tokens become non-slash wildcards; with
// capture they become capturing groups so positional values can be
// pulled out of the request path.
func compilePattern(key string, capture bool) (*regexp.Regexp, error) {
	normalized := ensureTrailingSlash(key)

	var b strings.Builder
	b.WriteString(`(?i)^`)
	for i, seg := range strings.Split(normalized, "/") {
		if i > 0 {
			b.WriteString("/")
		}
		if strings.HasPrefix(seg, ":") && len(seg) > 1 {
			if capture {
				b.WriteString(`([^/]+)`)
			} else {
				b.WriteString(`[^/]+`)
			}
			continue
		}
		b.WriteString(regexp.QuoteMeta(seg))
	}
	b.WriteString(`$`)

	return regexp.Compile(b.String())
}

// extractParams derives the parameter names from the route key and the
// captured values from the request path, and zips them into a map. A
// name/value count mismatch degrades to an empty map rather than an
// error.
func extractParams(key, normalizedPath string) map[string]string {
	params := make(map[string]string)

	tokens := paramToken.FindAllStringSubmatch(ensureTrailingSlash(key), -1)
	if len(tokens) == 0 {
		return params
	}
	names := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		names = append(names, tok[1])
	}

	capturing, err := compilePattern(key, true)
	if err != nil {
		return params
	}
	groups := capturing.FindStringSubmatch(normalizedPath)
	if len(groups) != len(names)+1 {
		return params
	}

	for i, name := range names {
		params[name] = groups[i+1]
	}
	return params
}
