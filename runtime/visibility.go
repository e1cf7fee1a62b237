package runtime

import (
	"fmt"
	"strings"
)

// Visibility controls who may call a method.
type Visibility int

const (
	// Public methods are callable from anywhere
	Public Visibility = iota
	// Protected methods are callable by instances of the owning class
	Protected
	// Private methods are callable only by the receiver itself
	Private
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Protected:
		return "protected"
	case Private:
		return "private"
	}
	return fmt.Sprintf("Visibility(%d)", int(v))
}

// ParseVisibility parses "public", "protected" or "private".
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "public":
		return Public, nil
	case "protected":
		return Protected, nil
	case "private":
		return Private, nil
	}
	return Public, fmt.Errorf("unknown visibility %q", s)
}
