// Package adapters delivers signature violations to external sinks.
package adapters

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Kind says which side of a call failed.
type Kind string

const (
	KindArgument Kind = "argument"
	KindResult   Kind = "result"
)

// Violation is one failed check, as delivered to sinks. Target names the
// class the signature was declared on; Method is the qualified label.
type Violation struct {
	ID         string    `json:"id" yaml:"id"`
	Kind       Kind      `json:"kind" yaml:"kind"`
	Target     string    `json:"target,omitempty" yaml:"target,omitempty"`
	Method     string    `json:"method" yaml:"method"`
	Failures   []string  `json:"failures" yaml:"failures"`
	OccurredAt time.Time `json:"occurred_at" yaml:"occurred_at"`
}

// NewViolation stamps a violation with a fresh id and the current time.
func NewViolation(kind Kind, method string, failures []string) Violation {
	return Violation{
		ID:         uuid.NewString(),
		Kind:       kind,
		Method:     method,
		Failures:   failures,
		OccurredAt: time.Now().UTC(),
	}
}

// Reporter delivers violations.
type Reporter interface {
	Report(ctx context.Context, v Violation) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, v Violation) error

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, v Violation) error {
	return f(ctx, v)
}

// Multi fans a violation out to every reporter and combines their errors.
type Multi []Reporter

// Report delivers v to all reporters, even when some fail.
func (m Multi) Report(ctx context.Context, v Violation) error {
	var err error
	for _, r := range m {
		err = multierr.Append(err, r.Report(ctx, v))
	}
	return err
}

// Closer is implemented by reporters holding connections.
type Closer interface {
	Close() error
}

// Close closes every reporter in m that holds a connection.
func (m Multi) Close() error {
	var err error
	for _, r := range m {
		if c, ok := r.(Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
