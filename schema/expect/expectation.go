// Package expect implements the predicate engine behind method signatures:
// a closed set of expectation variants, each with one matching rule and one
// diagnostic rendering.
package expect

import (
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"

	"github.com/effectus/sig/schema/types"
)

// Expectation is one of Type, Capability, Predicate, Pattern, Range,
// Boolean or AnyOf. The set is closed.
type Expectation interface {
	fmt.Stringer
	isExpectation()
}

// Class is anything values can be instances of: built-in and reflected
// classes from package types, or object model classes.
type Class interface {
	String() string
	IsInstance(value any) bool
}

// Responder is implemented by values whose method set is dynamic.
type Responder interface {
	RespondTo(name string) bool
}

// Type matches instances of Class and its descendants.
type Type struct {
	Class Class
}

// Capability matches values that respond to the named method.
type Capability string

// Predicate matches values for which Fn returns true.
type Predicate struct {
	Name string
	Fn   func(value any) bool
}

// Pattern matches values whose string rendering matches Regexp. Absent
// values render as the empty string.
type Pattern struct {
	Regexp *regexp.Regexp
}

// Boolean constrains truthiness. The zero value places no constraint.
type Boolean uint8

const (
	// Unconstrained always matches
	Unconstrained Boolean = iota
	// True matches truthy values
	True
	// False matches falsy values
	False
)

// AnyOf matches when at least one alternative matches. Alternatives are
// tried in order; an empty AnyOf never matches.
type AnyOf []Expectation

// invalid holds a payload no variant understands. It fails on first
// evaluation rather than at declaration time.
type invalid struct {
	payload any
}

func (Type) isExpectation()       {}
func (Capability) isExpectation() {}
func (Predicate) isExpectation()  {}
func (Pattern) isExpectation()    {}
func (Range) isExpectation()      {}
func (Boolean) isExpectation()    {}
func (AnyOf) isExpectation()      {}
func (invalid) isExpectation()    {}

func (e Type) String() string {
	if e.Class == nil {
		return "<nil class>"
	}
	return e.Class.String()
}

func (e Capability) String() string { return ":" + string(e) }

func (e Predicate) String() string { return e.Name }

func (e Pattern) String() string {
	if e.Regexp == nil {
		return "//"
	}
	return "/" + escapeSlashes(e.Regexp.String()) + "/"
}

// escapeSlashes escapes bare delimiters so the literal reparses. Characters
// already behind a backslash are copied through.
func escapeSlashes(src string) string {
	if !strings.Contains(src, "/") {
		return src
	}
	var b strings.Builder
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\\':
			b.WriteByte('\\')
			if i+1 < len(src) {
				i++
				b.WriteByte(src[i])
			}
		case '/':
			b.WriteString(`\/`)
		default:
			b.WriteByte(src[i])
		}
	}
	return b.String()
}

func (e Boolean) String() string {
	switch e {
	case True:
		return "true"
	case False:
		return "false"
	case Unconstrained:
		return "nil"
	}
	return fmt.Sprintf("Boolean(%d)", uint8(e))
}

func (e AnyOf) String() string {
	parts := make([]string, len(e))
	for i, alt := range e {
		parts[i] = alt.String()
	}
	return strings.Join(parts, " | ")
}

func (e invalid) String() string { return fmt.Sprintf("%v", e.payload) }

// Of lifts a raw declaration value into an expectation:
//
//	nil                Unconstrained
//	bool               True or False
//	Class              Type
//	reflect.Type       Type over the reflected class
//	*regexp.Regexp     Pattern
//	func(any) bool     Predicate
//	[]any              AnyOf over the lifted elements
//
// Expectations pass through unchanged. Any other payload yields an
// expectation that reports a configuration error when evaluated.
func Of(raw any) Expectation {
	switch x := raw.(type) {
	case nil:
		return Unconstrained
	case Expectation:
		return x
	case bool:
		if x {
			return True
		}
		return False
	case reflect.Type:
		return Type{Class: types.FromReflect("", x)}
	case Class:
		if types.IsNil(x) {
			return invalid{payload: raw}
		}
		return Type{Class: x}
	case *regexp.Regexp:
		if x == nil {
			return invalid{payload: raw}
		}
		return Pattern{Regexp: x}
	case func(any) bool:
		if x == nil {
			return invalid{payload: raw}
		}
		return Predicate{Name: funcName(x), Fn: x}
	case []Expectation:
		return AnyOf(x)
	case []any:
		alts := make(AnyOf, len(x))
		for i, alt := range x {
			alts[i] = Of(alt)
		}
		return alts
	}
	return invalid{payload: raw}
}

// MatchString builds a Pattern, panicking on an invalid expression.
func MatchString(pattern string) Pattern {
	return Pattern{Regexp: regexp.MustCompile(pattern)}
}

// Satisfies names a predicate function.
func Satisfies(name string, fn func(any) bool) Predicate {
	return Predicate{Name: name, Fn: fn}
}

func funcName(fn any) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return "<func>"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
