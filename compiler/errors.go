package compiler

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// ErrorKind classifies compile errors.
type ErrorKind string

const (
	KindSyntax           ErrorKind = "syntax"
	KindUnknownType      ErrorKind = "unknown-type"
	KindInvalidPattern   ErrorKind = "invalid-pattern"
	KindInvalidExpr      ErrorKind = "invalid-expression"
	KindDuplicateKeyword ErrorKind = "duplicate-keyword"
	KindEmptyTerm        ErrorKind = "empty-term"
)

// Error is a compile error at a position of the declaration source.
type Error struct {
	Pos     lexer.Position
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Pos.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }
