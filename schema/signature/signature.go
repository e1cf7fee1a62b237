// Package signature reconciles declared expectations with the arguments and
// result of a call.
package signature

import (
	"fmt"
	"sort"
	"strings"

	"github.com/effectus/sig/common"
	"github.com/effectus/sig/schema/expect"
)

// Keywords declares keyword argument expectations by name. As the last
// element of a positional declaration list it is split off from the
// positional expectations.
type Keywords map[string]any

// Signature is the immutable contract of one method.
type Signature struct {
	positional []expect.Expectation
	keywords   map[string]expect.Expectation
	result     expect.Expectation
}

// New normalises a declaration. expectedArgs may be nil (no positional
// expectations), a []any of raw expectations optionally ending in Keywords,
// a lone Keywords, or any single raw expectation. expectedResult may be nil
// for an unchecked result.
func New(expectedArgs any, expectedResult any) *Signature {
	var raw []any
	switch x := expectedArgs.(type) {
	case nil:
	case []any:
		raw = x
	default:
		raw = []any{x}
	}

	s := &Signature{}
	if n := len(raw); n > 0 {
		if kw, ok := raw[n-1].(Keywords); ok {
			s.keywords = make(map[string]expect.Expectation, len(kw))
			for name, e := range kw {
				s.keywords[name] = expect.Of(e)
			}
			raw = raw[:n-1]
		}
	}

	s.positional = make([]expect.Expectation, len(raw))
	for i, e := range raw {
		s.positional[i] = expect.Of(e)
	}
	if expectedResult != nil {
		s.result = expect.Of(expectedResult)
	}
	return s
}

// Positional returns the positional expectations.
func (s *Signature) Positional() []expect.Expectation {
	return append([]expect.Expectation(nil), s.positional...)
}

// Keyword returns the expectation declared for a keyword argument.
func (s *Signature) Keyword(name string) (expect.Expectation, bool) {
	e, ok := s.keywords[name]
	return e, ok
}

// HasKeywords reports whether keyword expectations were declared.
func (s *Signature) HasKeywords() bool {
	return s.keywords != nil
}

// Result returns the result expectation, nil when the result is unchecked.
func (s *Signature) Result() expect.Expectation {
	return s.result
}

// Reconcile checks every slot and returns all failures in slot order. A
// configuration error stops reconciliation at once.
//
// Without declared keyword expectations, supplied keyword arguments are
// checked as one extra positional map at index len(args). Positional slots
// past the declared list are unconstrained; declared slots past the actual
// arguments are checked against nil. Keyword arguments without a declared
// expectation are unconstrained.
func (s *Signature) Reconcile(args []any, kwargs map[string]any) ([]common.Failure, error) {
	actual := args
	if len(kwargs) > 0 && !s.HasKeywords() {
		actual = make([]any, 0, len(args)+1)
		actual = append(actual, args...)
		actual = append(actual, kwargs)
	}

	var failures []common.Failure
	for i, e := range s.positional {
		var value any
		if i < len(actual) {
			value = actual[i]
		}
		failure, err := check(fmt.Sprintf("#%d", i), e, value)
		if err != nil {
			return nil, err
		}
		if failure != nil {
			failures = append(failures, *failure)
		}
	}

	if !s.HasKeywords() {
		return failures, nil
	}
	names := make([]string, 0, len(kwargs))
	for name := range kwargs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e, ok := s.keywords[name]
		if !ok {
			continue
		}
		failure, err := check(name, e, kwargs[name])
		if err != nil {
			return nil, err
		}
		if failure != nil {
			failures = append(failures, *failure)
		}
	}
	return failures, nil
}

// CheckArguments raises an *common.ArgumentTypeError listing every failing
// slot, or passes configuration errors through.
func (s *Signature) CheckArguments(method string, args []any, kwargs map[string]any) error {
	failures, err := s.Reconcile(args, kwargs)
	if err != nil {
		return withMethod(err, method)
	}
	if len(failures) > 0 {
		return &common.ArgumentTypeError{Method: method, Failures: failures}
	}
	return nil
}

// CheckResult raises an *common.ResultTypeError when result fails the result
// expectation. Without one it always succeeds.
func (s *Signature) CheckResult(method string, result any) error {
	if s.result == nil {
		return nil
	}
	failure, err := check("result", s.result, result)
	if err != nil {
		return withMethod(err, method)
	}
	if failure != nil {
		return &common.ResultTypeError{Method: method, Failure: *failure}
	}
	return nil
}

// String renders the signature in declaration syntax.
func (s *Signature) String() string {
	parts := make([]string, 0, len(s.positional)+len(s.keywords))
	for _, e := range s.positional {
		parts = append(parts, e.String())
	}
	names := make([]string, 0, len(s.keywords))
	for name := range s.keywords {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, name+": "+s.keywords[name].String())
	}
	out := "(" + strings.Join(parts, ", ") + ")"
	if s.result != nil {
		out += " -> " + s.result.String()
	}
	return out
}

func check(slot string, e expect.Expectation, value any) (*common.Failure, error) {
	ok, err := expect.Matches(e, value)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}
	return &common.Failure{Slot: slot, Message: expect.Format(e, value)}, nil
}

func withMethod(err error, method string) error {
	if cfgErr, ok := err.(*common.ConfigurationError); ok && cfgErr.Method == "" {
		copied := *cfgErr
		copied.Method = method
		return &copied
	}
	return err
}
