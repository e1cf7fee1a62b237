package runtime

import "fmt"

// NoMethodReason says why a method could not be called.
type NoMethodReason int

const (
	// Undefined means no class in the chain defines the method
	Undefined NoMethodReason = iota
	// NotVisible means the method exists but the caller may not see it
	NotVisible
	// NoSuper means there is no further implementation to delegate to
	NoSuper
)

// NoMethodError is returned when a call cannot be dispatched.
type NoMethodError struct {
	Name       string
	Receiver   string
	Reason     NoMethodReason
	Visibility Visibility
}

func (e *NoMethodError) Error() string {
	switch e.Reason {
	case NotVisible:
		return fmt.Sprintf("%s method '%s' called for %s", e.Visibility, e.Name, e.Receiver)
	case NoSuper:
		return fmt.Sprintf("super: no superclass method '%s' for %s", e.Name, e.Receiver)
	}
	return fmt.Sprintf("undefined method '%s' for %s", e.Name, e.Receiver)
}
