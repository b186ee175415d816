// Package modules provides cotton's module registry: the resolver that
// maps module paths (relative to the project's src root) to loaded
// modules.
//
// A Module mirrors the shape of a source module: one optional default
// export plus named exports. Module factories play the role of module
// initialization code and run at most once per process; subsequent loads
// of the same path return the cached handle. The cache is explicit and
// permanent for the process lifetime; the dev server restarts the
// process when files change, so modules may safely hold module-level
// state.
package modules

import (
	"fmt"
	"strings"
	"sync"
)

// Module is a loaded module handle: a default export and named exports.
type Module struct {
	// Default is the module's default export, or nil.
	Default any

	// Exports holds the module's named exports.
	Exports map[string]any
}

// Export returns the named export, or nil when absent.
func (m *Module) Export(name string) any {
	if m == nil || m.Exports == nil {
		return nil
	}
	return m.Exports[name]
}

// Factory produces a module. It runs at most once per registered path.
type Factory func() (*Module, error)

// Registry resolves module paths to modules with load-once caching.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	loaded    map[string]*loadState
}

type loadState struct {
	once   sync.Once
	module *Module
	err    error
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		loaded:    make(map[string]*loadState),
	}
}

// Register binds a module factory to a path. Registering the same path
// twice replaces the factory only if the module has not been loaded yet.
func (r *Registry) Register(path string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, done := r.loaded[path]; done {
		return
	}
	r.factories[path] = factory
}

// RegisterModule binds an already-constructed module to a path.
func (r *Registry) RegisterModule(path string, m *Module) {
	r.Register(path, func() (*Module, error) {
		return m, nil
	})
}

// Has reports whether a path is registered.
func (r *Registry) Has(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.factories[path]
	return ok
}

// Load resolves a path to its module, running the factory on first use.
// An unregistered path or failing factory yields an error; the failure
// is cached like a success, mirroring import semantics.
func (r *Registry) Load(path string) (*Module, error) {
	r.mu.Lock()
	factory, registered := r.factories[path]
	if !registered {
		r.mu.Unlock()
		return nil, fmt.Errorf("module %q not found", path)
	}
	state, ok := r.loaded[path]
	if !ok {
		state = &loadState{}
		r.loaded[path] = state
	}
	r.mu.Unlock()

	state.once.Do(func() {
		defer func() {
			if rec := recover(); rec != nil {
				state.module = nil
				state.err = fmt.Errorf("module %q panicked during load: %v", path, rec)
			}
		}()
		state.module, state.err = factory()
	})

	if state.err != nil {
		return nil, state.err
	}
	if state.module == nil {
		return nil, fmt.Errorf("module %q factory returned nil", path)
	}
	return state.module, nil
}

// Normalize strips a source-file extension from a module path unless the
// path already carries the ".loader" suffix, which is meaningful to the
// loader convention and kept as-is.
func Normalize(path string) string {
	if strings.HasSuffix(path, ".loader") {
		return path
	}
	for _, ext := range []string{".js", ".go"} {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}
