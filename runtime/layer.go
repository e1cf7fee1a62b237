package runtime

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Layer is the interception layer of one class. It is searched before the
// class's own method table, so its methods reach the originals through
// Call.Super. A class has at most one layer for its whole lifetime.
type Layer struct {
	id      uuid.UUID
	owner   *Class
	methods map[string]method

	mu sync.RWMutex
}

func newLayer(owner *Class) *Layer {
	return &Layer{
		id:      uuid.New(),
		owner:   owner,
		methods: make(map[string]method),
	}
}

// ID identifies the layer.
func (l *Layer) ID() uuid.UUID { return l.id }

// Owner returns the class the layer belongs to.
func (l *Layer) Owner() *Class { return l.owner }

func (l *Layer) String() string {
	return "#<Sig:" + l.id.String() + ">"
}

// Methods returns the names of the intercepted methods, sorted.
func (l *Layer) Methods() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.methods))
	for name := range l.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Visibility reports the visibility of an intercepted method.
func (l *Layer) Visibility(name string) (Visibility, bool) {
	m, ok := l.lookup(name)
	return m.vis, ok
}

// define replaces any previous definition atomically with its visibility.
func (l *Layer) define(name string, fn Func, vis Visibility) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.methods[name] = method{fn: fn, vis: vis}
}

func (l *Layer) lookup(name string) (method, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.methods[name]
	return m, ok
}
