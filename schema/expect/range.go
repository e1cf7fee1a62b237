package expect

import (
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/effectus/sig/schema/types"
)

// Range matches values between Min and Max. A nil bound is open. Values
// that cannot be compared with the bounds never match.
type Range struct {
	Min        any
	Max        any
	ExcludeEnd bool
}

// Between is the inclusive range min..max.
func Between(min, max any) Range {
	return Range{Min: min, Max: max}
}

// Until is the end-exclusive range min...max.
func Until(min, max any) Range {
	return Range{Min: min, Max: max, ExcludeEnd: true}
}

// Contains reports whether value lies in the range.
func (r Range) Contains(value any) bool {
	if types.IsNil(value) {
		return false
	}
	if r.Min != nil {
		c, ok := compare(value, r.Min)
		if !ok || c < 0 {
			return false
		}
	}
	if r.Max != nil {
		c, ok := compare(value, r.Max)
		if !ok || c > 0 || (r.ExcludeEnd && c == 0) {
			return false
		}
	}
	return true
}

func (r Range) String() string {
	op := ".."
	if r.ExcludeEnd {
		op = "..."
	}
	var b strings.Builder
	if r.Min != nil {
		b.WriteString(Inspect(r.Min))
	}
	b.WriteString(op)
	if r.Max != nil {
		b.WriteString(Inspect(r.Max))
	}
	return b.String()
}

// compare orders a against b. Integers compare exactly, mixed numerics as
// floats, strings lexically and times chronologically.
func compare(a, b any) (int, bool) {
	if ai, ok := intValue(a); ok {
		if bi, ok := intValue(b); ok {
			return cmp(ai < bi, ai > bi), true
		}
	}
	if af, ok := floatValue(a); ok {
		if bf, ok := floatValue(b); ok {
			if math.IsNaN(af) || math.IsNaN(bf) {
				return 0, false
			}
			return cmp(af < bf, af > bf), true
		}
	}
	if as, ok := stringValue(a); ok {
		if bs, ok := stringValue(b); ok {
			return strings.Compare(as, bs), true
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt), true
		}
	}
	return 0, false
}

func cmp(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

func intValue(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func floatValue(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func stringValue(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}
