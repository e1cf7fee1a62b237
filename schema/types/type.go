// Package types models the class hierarchy that signature expectations
// check runtime values against.
package types

import (
	"reflect"
	"time"
)

// Type is a named class. Built-in classes form a single-inheritance tree
// rooted at Object; reflected classes wrap a Go type and hang off Object.
type Type struct {
	// Name is the printable class name used in diagnostics
	Name string

	// Parent is the superclass, nil only for Object
	Parent *Type

	// rtype is set for classes backed by a concrete Go type or interface
	rtype reflect.Type
}

// Built-in classes.
var (
	Object   = &Type{Name: "Object"}
	Nil      = &Type{Name: "Nil", Parent: Object}
	Numeric  = &Type{Name: "Numeric", Parent: Object}
	Integer  = &Type{Name: "Integer", Parent: Numeric}
	Float    = &Type{Name: "Float", Parent: Numeric}
	String   = &Type{Name: "String", Parent: Object}
	Boolean  = &Type{Name: "Boolean", Parent: Object}
	List     = &Type{Name: "List", Parent: Object}
	Map      = &Type{Name: "Map", Parent: Object}
	Time     = &Type{Name: "Time", Parent: Object}
	Duration = &Type{Name: "Duration", Parent: Object}
	Func     = &Type{Name: "Func", Parent: Object}
	Error    = FromReflect("Error", reflect.TypeOf((*error)(nil)).Elem())
)

// Builtins returns the built-in classes in declaration order.
func Builtins() []*Type {
	return []*Type{Object, Nil, Numeric, Integer, Float, String, Boolean, List, Map, Time, Duration, Func, Error}
}

// FromReflect creates a class backed by a Go type. Interface types match
// any value implementing them; other types match values of that exact type.
// An empty name defaults to the Go type's own name.
func FromReflect(name string, t reflect.Type) *Type {
	if name == "" {
		name = t.String()
	}
	return &Type{Name: name, Parent: Object, rtype: t}
}

// Of is FromReflect for the static type parameter.
func Of[T any](name string) *Type {
	return FromReflect(name, reflect.TypeOf((*T)(nil)).Elem())
}

// String returns the class name.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// Reflect returns the backing Go type, or nil for built-in classes.
func (t *Type) Reflect() reflect.Type {
	return t.rtype
}

// IsSubtypeOf reports whether t is other or one of its descendants.
func (t *Type) IsSubtypeOf(other *Type) bool {
	for c := t; c != nil; c = c.Parent {
		if c == other {
			return true
		}
	}
	return false
}

// IsInstance reports whether value is an instance of t or of a descendant.
func (t *Type) IsInstance(value any) bool {
	if t == Object {
		return true
	}
	if t.rtype != nil {
		if IsNil(value) {
			return false
		}
		vt := reflect.TypeOf(value)
		if t.rtype.Kind() == reflect.Interface {
			return vt.Implements(t.rtype)
		}
		return vt == t.rtype
	}
	return Classify(value).IsSubtypeOf(t)
}

// Classify returns the most specific built-in class of value. Values that
// fit no built-in class are plain Objects.
func Classify(value any) *Type {
	if IsNil(value) {
		return Nil
	}
	switch value.(type) {
	case bool:
		return Boolean
	case string:
		return String
	case time.Time, *time.Time:
		return Time
	case time.Duration:
		return Duration
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Integer
	case reflect.Float32, reflect.Float64:
		return Float
	case reflect.String:
		return String
	case reflect.Bool:
		return Boolean
	case reflect.Slice, reflect.Array:
		return List
	case reflect.Map:
		return Map
	case reflect.Func:
		return Func
	}
	return Object
}

// ClassNamer is implemented by values that know their own class name.
type ClassNamer interface {
	ClassName() string
}

// ClassOf names the class of value for diagnostics.
func ClassOf(value any) string {
	if named, ok := value.(ClassNamer); ok && !IsNil(value) {
		return named.ClassName()
	}
	if c := Classify(value); c != Object {
		return c.Name
	}
	return reflect.TypeOf(value).String()
}

// IsNil reports whether value is absent: a nil interface or a nil pointer,
// func, channel or interface. Nil slices and maps are still List and Map.
func IsNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.UnsafePointer, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
