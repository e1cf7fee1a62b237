// Package runtime is a small dynamic object model: classes with method
// tables and visibility, lazily created singleton classes, per-class
// interception layers and super delegation along the ancestor chain.
package runtime

import (
	"fmt"
	"sort"
	"sync"

	"github.com/effectus/sig/schema/types"
)

// Func implements a method.
type Func func(call *Call) (any, error)

type method struct {
	fn  Func
	vis Visibility
}

// Receiver is anything methods can be called on: an *Instance or a *Class
// (for class-level methods).
type Receiver interface {
	fmt.Stringer
	// Singleton returns the receiver's own singleton class, creating it on
	// first use.
	Singleton() *Class
	lookupStart() *Class
}

// Class owns a method table and an optional interception layer.
type Class struct {
	name   string
	parent *Class

	methods   map[string]method
	layer     *Layer
	singleton *Class

	mu        sync.RWMutex
	installMu sync.Mutex
}

// NewClass creates a class. parent may be nil.
func NewClass(name string, parent *Class) *Class {
	return &Class{
		name:    name,
		parent:  parent,
		methods: make(map[string]method),
	}
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

func (c *Class) String() string { return c.name }

// ClassName names the class of a class.
func (c *Class) ClassName() string { return "Class" }

// Parent returns the superclass, or nil.
func (c *Class) Parent() *Class { return c.parent }

// Define adds or replaces a public method and returns its name.
func (c *Class) Define(name string, fn Func) string {
	return c.DefineWithVisibility(name, fn, Public)
}

// DefineWithVisibility adds or replaces a method with the given visibility.
func (c *Class) DefineWithVisibility(name string, fn Func, vis Visibility) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.methods[name] = method{fn: fn, vis: vis}
	return name
}

// SetVisibility changes the visibility of a method in the class's own table.
func (c *Class) SetVisibility(name string, vis Visibility) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.methods[name]
	if !ok {
		return &NoMethodError{Name: name, Receiver: c.name}
	}
	m.vis = vis
	c.methods[name] = m
	return nil
}

// MethodVisibility resolves name through the ancestor chain, layers
// included, and reports the visibility of the first definition found.
func (c *Class) MethodVisibility(name string) (Visibility, bool) {
	frames := chain(c)
	idx, m := find(frames, 0, name)
	if idx < 0 {
		return Public, false
	}
	return m.vis, true
}

// OwnMethods returns the names in the class's own table, sorted.
func (c *Class) OwnMethods() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.methods))
	for name := range c.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Layer returns the interception layer, or nil when nothing was intercepted.
func (c *Class) Layer() *Layer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.layer
}

// Intercept defines a method on the class's interception layer, creating
// the layer on first use. build receives the current visibility of the
// method and the result is installed with exactly that visibility.
// Intercepting an undefined method installs nothing. Calls for the same
// class are serialised.
func (c *Class) Intercept(name string, build func(vis Visibility) Func) (*Layer, error) {
	c.installMu.Lock()
	defer c.installMu.Unlock()

	vis, ok := c.MethodVisibility(name)
	if !ok {
		return nil, &NoMethodError{Name: name, Receiver: c.name}
	}
	layer := c.ensureLayer()
	layer.define(name, build(vis), vis)
	return layer, nil
}

func (c *Class) ensureLayer() *Layer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.layer == nil {
		c.layer = newLayer(c)
	}
	return c.layer
}

// Singleton returns the class holding class-level methods. Its parent is
// the superclass's singleton, so class-level methods are inherited.
func (c *Class) Singleton() *Class {
	c.mu.RLock()
	s := c.singleton
	c.mu.RUnlock()
	if s != nil {
		return s
	}

	var parent *Class
	if c.parent != nil {
		parent = c.parent.Singleton()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.singleton == nil {
		c.singleton = NewClass("#<Class:"+c.name+">", parent)
	}
	return c.singleton
}

func (c *Class) lookupStart() *Class { return c.Singleton() }

// New creates an instance.
func (c *Class) New() *Instance {
	return &Instance{class: c, fields: make(map[string]any)}
}

// IsSubclassOf reports whether c is other or inherits from it.
func (c *Class) IsSubclassOf(other *Class) bool {
	for k := c; k != nil; k = k.parent {
		if k == other {
			return true
		}
	}
	return false
}

// IsInstance reports whether value is an instance of c or a subclass.
func (c *Class) IsInstance(value any) bool {
	if types.IsNil(value) {
		return false
	}
	recv, ok := value.(Receiver)
	return ok && kindOf(recv, c)
}

// Send calls a public class-level method.
func (c *Class) Send(name string, args ...any) (any, error) {
	return dispatch(c, name, args, nil, nil, false)
}

// SendKeywords calls a public class-level method with keyword arguments.
func (c *Class) SendKeywords(name string, kwargs map[string]any, args ...any) (any, error) {
	return dispatch(c, name, args, kwargs, nil, false)
}

// RespondTo reports whether a public class-level method exists.
func (c *Class) RespondTo(name string) bool {
	return respondTo(c, name)
}

func (c *Class) lookupOwn(name string) (method, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.methods[name]
	return m, ok
}

func kindOf(recv Receiver, cls *Class) bool {
	for k := recv.lookupStart(); k != nil; k = k.parent {
		if k == cls {
			return true
		}
	}
	return false
}
