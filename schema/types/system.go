package types

import (
	"fmt"
	"sort"
	"sync"
)

// Registry resolves class names for declarations written as text. It is
// safe for concurrent use.
type Registry struct {
	types   map[string]*Type
	aliases map[string]string

	mu sync.RWMutex
}

// NewRegistry creates a registry holding the built-in classes.
func NewRegistry() *Registry {
	r := &Registry{
		types:   make(map[string]*Type),
		aliases: make(map[string]string),
	}
	for _, t := range Builtins() {
		r.types[t.Name] = t
	}
	return r
}

// Register adds a named class. Registering the same class twice is a no-op;
// a different class under a taken name is an error.
func (r *Registry) Register(t *Type) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("cannot register unnamed type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.types[t.Name]; ok && existing != t {
		return fmt.Errorf("type %s already registered", t.Name)
	}
	r.types[t.Name] = t
	return nil
}

// Lookup resolves a class by exact name, then by registered alias, then by
// built-in alias.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	t, ok := r.types[name]
	if !ok {
		if target, aliased := r.aliases[name]; aliased {
			t, ok = r.types[target]
		}
	}
	r.mu.RUnlock()
	if ok {
		return t, true
	}

	if builtin, err := ParseTypeName(name); err == nil {
		return builtin, true
	}
	return nil, false
}

// Names returns every registered class name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
