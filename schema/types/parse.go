package types

import (
	"fmt"
	"strings"
)

// builtinAliases maps lower-case spellings to built-in classes.
var builtinAliases = map[string]*Type{
	"object":    Object,
	"any":       Object,
	"unknown":   Object,
	"nil":       Nil,
	"null":      Nil,
	"numeric":   Numeric,
	"number":    Numeric,
	"integer":   Integer,
	"int":       Integer,
	"float":     Float,
	"double":    Float,
	"string":    String,
	"str":       String,
	"boolean":   Boolean,
	"bool":      Boolean,
	"list":      List,
	"array":     List,
	"[]":        List,
	"map":       Map,
	"hash":      Map,
	"time":      Time,
	"timestamp": Time,
	"duration":  Duration,
	"func":      Func,
	"function":  Func,
	"proc":      Func,
	"error":     Error,
}

// ParseTypeName resolves a built-in class by name or alias. Matching is
// case-insensitive so "Integer", "integer" and "int" are the same class.
func ParseTypeName(name string) (*Type, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("empty type name")
	}
	lower := strings.ToLower(trimmed)
	if t, ok := builtinAliases[lower]; ok {
		return t, nil
	}
	if strings.HasPrefix(lower, "[]") || strings.HasPrefix(lower, "list<") || strings.HasPrefix(lower, "array<") {
		// element types are not checked, every list is a List
		return List, nil
	}
	if strings.HasPrefix(lower, "map<") || strings.HasPrefix(lower, "map[") {
		return Map, nil
	}
	return nil, fmt.Errorf("unknown type name %q", trimmed)
}
