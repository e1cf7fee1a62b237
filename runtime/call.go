package runtime

// Call is one method invocation.
type Call struct {
	Self   Receiver
	Name   string
	Args   []any
	Kwargs map[string]any

	frames []frame
	index  int
}

// frame is one step of the lookup chain: a class's layer or its own table.
type frame struct {
	class *Class
	layer *Layer
}

func (f frame) lookup(name string) (method, bool) {
	if f.layer != nil {
		return f.layer.lookup(name)
	}
	return f.class.lookupOwn(name)
}

// chain lists the frames searched for a receiver starting at start: each
// class's layer first, then its own table, then the parent.
func chain(start *Class) []frame {
	var frames []frame
	for c := start; c != nil; c = c.parent {
		if layer := c.Layer(); layer != nil {
			frames = append(frames, frame{class: c, layer: layer})
		}
		frames = append(frames, frame{class: c})
	}
	return frames
}

func find(frames []frame, from int, name string) (int, method) {
	for i := from; i < len(frames); i++ {
		if m, ok := frames[i].lookup(name); ok {
			return i, m
		}
	}
	return -1, method{}
}

// dispatch resolves and invokes name on self. implicit marks a call
// without an explicit receiver, which may reach private methods; caller
// is the object making the call, used for protected access.
func dispatch(self Receiver, name string, args []any, kwargs map[string]any, caller Receiver, implicit bool) (any, error) {
	frames := chain(self.lookupStart())
	idx, m := find(frames, 0, name)
	if idx < 0 {
		return nil, &NoMethodError{Name: name, Receiver: self.String()}
	}

	switch m.vis {
	case Private:
		if !implicit {
			return nil, &NoMethodError{Name: name, Receiver: self.String(), Reason: NotVisible, Visibility: Private}
		}
	case Protected:
		if !implicit && (caller == nil || !kindOf(caller, frames[idx].class)) {
			return nil, &NoMethodError{Name: name, Receiver: self.String(), Reason: NotVisible, Visibility: Protected}
		}
	}

	call := &Call{Self: self, Name: name, Args: args, Kwargs: kwargs, frames: frames, index: idx}
	return m.fn(call)
}

func respondTo(self Receiver, name string) bool {
	idx, m := find(chain(self.lookupStart()), 0, name)
	return idx >= 0 && m.vis == Public
}

// Arg returns the i-th positional argument, or nil when it was not passed.
func (c *Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Kwarg returns a keyword argument.
func (c *Call) Kwarg(name string) (any, bool) {
	v, ok := c.Kwargs[name]
	return v, ok
}

// Super calls the next implementation of this method with the same
// arguments.
func (c *Call) Super() (any, error) {
	return c.SuperWith(c.Args, c.Kwargs)
}

// SuperWith calls the next implementation of this method with new
// arguments. Visibility is not checked.
func (c *Call) SuperWith(args []any, kwargs map[string]any) (any, error) {
	idx, m := find(c.frames, c.index+1, c.Name)
	if idx < 0 {
		return nil, &NoMethodError{Name: c.Name, Receiver: c.Self.String(), Reason: NoSuper}
	}
	next := &Call{Self: c.Self, Name: c.Name, Args: args, Kwargs: kwargs, frames: c.frames, index: idx}
	return m.fn(next)
}

// Invoke calls a method on self without an explicit receiver, so private
// and protected methods are reachable.
func (c *Call) Invoke(name string, args ...any) (any, error) {
	return dispatch(c.Self, name, args, nil, c.Self, true)
}

// InvokeKeywords is Invoke with keyword arguments.
func (c *Call) InvokeKeywords(name string, kwargs map[string]any, args ...any) (any, error) {
	return dispatch(c.Self, name, args, kwargs, c.Self, true)
}

// SendTo calls a method on another receiver. Protected methods are
// reachable when self is an instance of the method's owner.
func (c *Call) SendTo(recv Receiver, name string, args ...any) (any, error) {
	return dispatch(recv, name, args, nil, c.Self, false)
}
