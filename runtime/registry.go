package runtime

import (
	"fmt"
	"sort"
	"sync"
)

// Registry names classes so declarations written as text can find them.
type Registry struct {
	classes map[string]*Class
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class)}
}

// Register adds a class under its name.
func (r *Registry) Register(c *Class) error {
	if c == nil || c.name == "" {
		return fmt.Errorf("cannot register unnamed class")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.classes[c.name]; ok && existing != c {
		return fmt.Errorf("class %s already registered", c.name)
	}
	r.classes[c.name] = c
	return nil
}

// Define creates and registers a class.
func (r *Registry) Define(name string, parent *Class) (*Class, error) {
	c := NewClass(name, parent)
	if err := r.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Lookup finds a class by name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	return c, ok
}

// Names returns the registered class names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
