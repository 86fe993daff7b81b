// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function with a constructor.  At boot
// cmd/web builds the shared Deps once, calls Build, and lets every
// component mount its routes on the root router.

package component

import (
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Component contract.
//
// Mount receives the root router; a component owning a sub-tree uses
// r.Route or r.Group itself, e.g.:
//
//	r.Route(prefix, func(a chi.Router) { a.Get("/", dashboard) })
type Component interface {
	Name() string
	Mount(r chi.Router)
}

// Factory builds a component from the shared dependencies.
type Factory func(*Deps) Component

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register is invoked from component init() functions.
func Register(name string, f Factory) {
	mu.Lock()
	registry[name] = f
	mu.Unlock()
}

// Build constructs every registered component, ordered by name so route
// registration is deterministic.
func Build(d *Deps) []Component {
	mu.RLock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	mu.RUnlock()
	sort.Strings(names)

	out := make([]Component, 0, len(names))
	for _, n := range names {
		mu.RLock()
		f := registry[n]
		mu.RUnlock()
		out = append(out, f(d))
	}
	return out
}

// MountAll builds and mounts every registered component on r.
func MountAll(r chi.Router, d *Deps) {
	for _, c := range Build(d) {
		c.Mount(r)
	}
}
