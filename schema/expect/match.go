package expect

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/effectus/sig/common"
	"github.com/effectus/sig/schema/types"
)

// Matches evaluates e against value. It never mutates value. The error is
// always a *common.ConfigurationError and is distinct from a plain mismatch.
func Matches(e Expectation, value any) (bool, error) {
	switch x := e.(type) {
	case Type:
		if x.Class == nil {
			return false, invalidDefinition(x)
		}
		return x.Class.IsInstance(value), nil
	case Capability:
		return RespondsTo(value, string(x)), nil
	case Predicate:
		if x.Fn == nil {
			return false, invalidDefinition(x)
		}
		return x.Fn(value), nil
	case Pattern:
		if x.Regexp == nil {
			return false, invalidDefinition(x)
		}
		return x.Regexp.MatchString(Stringify(value)), nil
	case Range:
		return x.Contains(value), nil
	case Boolean:
		switch x {
		case Unconstrained:
			return true, nil
		case True:
			return Truthy(value), nil
		case False:
			return !Truthy(value), nil
		}
		return false, invalidDefinition(x)
	case AnyOf:
		for _, alt := range x {
			ok, err := Matches(alt, value)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case invalid:
		return false, invalidDefinition(x.payload)
	}
	return false, invalidDefinition(e)
}

func invalidDefinition(payload any) error {
	return &common.ConfigurationError{
		Reason: fmt.Sprintf("Invalid signature definition: unknown behavior %v (%T)", payload, payload),
	}
}

// Truthy applies the host truthiness rule: only absent values and false are
// falsy. Zero numbers, empty strings and empty collections are truthy.
func Truthy(value any) bool {
	if types.IsNil(value) {
		return false
	}
	if b, ok := value.(bool); ok {
		return b
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Bool {
		return rv.Bool()
	}
	return true
}

// RespondsTo reports whether value has a method called name. Snake-case
// names also match their exported Go spelling, so "to_s" finds ToS.
func RespondsTo(value any, name string) bool {
	if types.IsNil(value) || name == "" {
		return false
	}
	if r, ok := value.(Responder); ok {
		return r.RespondTo(name)
	}
	rv := reflect.ValueOf(value)
	if rv.MethodByName(name).IsValid() {
		return true
	}
	exported := exportedName(name)
	return exported != name && rv.MethodByName(exported).IsValid()
}

func exportedName(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// Stringify renders value the way patterns see it.
func Stringify(value any) string {
	if types.IsNil(value) {
		return ""
	}
	switch x := value.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	return fmt.Sprint(value)
}
