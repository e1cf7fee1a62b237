package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrContract is wrapped by every contract violation so callers can test
// for "any signature failure" with errors.Is.
var ErrContract = errors.New("signature contract violated")

// ConfigurationError reports a bad declaration: an unknown method, or an
// expectation the predicate engine does not understand. It is a programmer
// error and is never a contract violation.
type ConfigurationError struct {
	Target string
	Method string
	Reason string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Target != "" && e.Method != "":
		return fmt.Sprintf("%s for %s#%s", e.Reason, e.Target, e.Method)
	case e.Method != "":
		return fmt.Sprintf("%s for %s", e.Reason, e.Method)
	default:
		return e.Reason
	}
}

// Failure is one failing slot.
type Failure struct {
	// Slot is "#0", "#1", ... for positional arguments, the keyword name
	// for keyword arguments and "result" for return values.
	Slot    string
	Message string
}

// String renders the failure as a diagnostic line.
func (f Failure) String() string {
	return fmt.Sprintf("- %s: %s", f.Slot, f.Message)
}

// ArgumentTypeError is raised before the method body runs when one or more
// arguments fail their expectations.
type ArgumentTypeError struct {
	Method   string
	Failures []Failure
}

func (e *ArgumentTypeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid arguments for %s:", e.Method)
	for _, f := range e.Failures {
		b.WriteString("\n")
		b.WriteString(f.String())
	}
	return b.String()
}

// Unwrap makes errors.Is(err, ErrContract) hold.
func (e *ArgumentTypeError) Unwrap() error { return ErrContract }

// Slots lists the failing slots in report order.
func (e *ArgumentTypeError) Slots() []string {
	slots := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		slots = append(slots, f.Slot)
	}
	return slots
}

// Messages lists the failure messages in report order.
func (e *ArgumentTypeError) Messages() []string {
	messages := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		messages = append(messages, f.Message)
	}
	return messages
}

// ResultTypeError is raised after the method body returns when the result
// fails its expectation. Side effects of the body are not undone.
type ResultTypeError struct {
	Method  string
	Failure Failure
}

func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("invalid result for %s:\n%s", e.Method, e.Failure.String())
}

// Unwrap makes errors.Is(err, ErrContract) hold.
func (e *ResultTypeError) Unwrap() error { return ErrContract }
