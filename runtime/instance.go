package runtime

import "sync"

// Instance is an object of a class with its own fields.
type Instance struct {
	class     *Class
	singleton *Class
	fields    map[string]any

	mu sync.RWMutex
}

// Class returns the instance's class.
func (i *Instance) Class() *Class { return i.class }

// ClassName names the instance's class.
func (i *Instance) ClassName() string { return i.class.name }

func (i *Instance) String() string { return "#<" + i.class.name + ">" }

// Singleton returns the class holding methods of this object only.
func (i *Instance) Singleton() *Class {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.singleton == nil {
		i.singleton = NewClass("#<Class:"+i.String()+">", i.class)
	}
	return i.singleton
}

func (i *Instance) lookupStart() *Class {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.singleton != nil {
		return i.singleton
	}
	return i.class
}

// IsA reports whether the instance's class is cls or a subclass.
func (i *Instance) IsA(cls *Class) bool {
	return kindOf(i, cls)
}

// Get reads a field.
func (i *Instance) Get(field string) any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.fields[field]
}

// Set writes a field.
func (i *Instance) Set(field string, value any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.fields[field] = value
}

// Send calls a public method.
func (i *Instance) Send(name string, args ...any) (any, error) {
	return dispatch(i, name, args, nil, nil, false)
}

// SendKeywords calls a public method with keyword arguments.
func (i *Instance) SendKeywords(name string, kwargs map[string]any, args ...any) (any, error) {
	return dispatch(i, name, args, kwargs, nil, false)
}

// RespondTo reports whether a public method exists.
func (i *Instance) RespondTo(name string) bool {
	return respondTo(i, name)
}
