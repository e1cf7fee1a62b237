package expect

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/effectus/sig/schema/types"
)

// Format renders the diagnostic for value failing e. It is only meaningful
// for a value that did not match.
func Format(e Expectation, value any) string {
	v := Inspect(value)
	switch x := e.(type) {
	case Type:
		return fmt.Sprintf("Expected %s to be a %s, but is a %s", v, x, types.ClassOf(value))
	case Capability:
		return fmt.Sprintf("Expected %s to respond to :%s", v, string(x))
	case Predicate:
		return fmt.Sprintf("Expected %s to return a truthy value for predicate %s", v, x.Name)
	case Pattern:
		return fmt.Sprintf("Expected stringified %s to match %s", v, x)
	case Range:
		return fmt.Sprintf("Expected %s to be included in %s", v, x)
	case Boolean:
		switch x {
		case True:
			return fmt.Sprintf("Expected %s to be truthy", v)
		case False:
			return fmt.Sprintf("Expected %s to be falsy", v)
		}
		return fmt.Sprintf("Expected %s to be anything", v)
	case AnyOf:
		if len(x) == 0 {
			return fmt.Sprintf("Expected %s to match one of no alternatives", v)
		}
		parts := make([]string, len(x))
		for i, alt := range x {
			parts[i] = Format(alt, value)
		}
		return strings.Join(parts, " OR ")
	case invalid:
		return fmt.Sprintf("Invalid signature definition: unknown behavior %v", x.payload)
	}
	return fmt.Sprintf("Invalid signature definition: unknown behavior %v", e)
}

// Inspect renders a value for diagnostics: nil as nil, strings quoted,
// collections element by element with map keys sorted.
func Inspect(value any) string {
	if types.IsNil(value) {
		return "nil"
	}
	switch x := value.(type) {
	case string:
		return strconv.Quote(x)
	case error:
		return fmt.Sprintf("#<error: %s>", x.Error())
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "[]"
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = Inspect(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Map:
		keys := rv.MapKeys()
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%v: %s", k.Interface(), Inspect(rv.MapIndex(k).Interface())))
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return fmt.Sprintf("%v", value)
}
