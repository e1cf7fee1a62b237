// Package ast holds the grammar of textual signature declarations:
//
//	(Numeric, :to_s, /^a/, 1...100, true, nil, Integer | String, `value > 0`, word: String) -> Float
package ast

import "github.com/alecthomas/participle/v2/lexer"

// Signature is a parenthesised parameter list with an optional result.
type Signature struct {
	Pos lexer.Position

	Params []*Param     `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
	Result *Alternation `parser:"( '->' @@ )?"`
}

// Param is a positional expectation, or a keyword expectation when Keyword
// is set.
type Param struct {
	Pos lexer.Position

	Keyword string       `parser:"@Keyword?"`
	Value   *Alternation `parser:"@@"`
}

// Alternation is one or more terms separated by '|'.
type Alternation struct {
	Pos lexer.Position

	Terms []*Term `parser:"@@ ( '|' @@ )*"`
}

// Term is a single expectation.
type Term struct {
	Pos lexer.Position

	Nil    bool   `parser:"  @'nil'"`
	True   bool   `parser:"| @'true'"`
	False  bool   `parser:"| @'false'"`
	Symbol string `parser:"| @Symbol"`
	Regex  string `parser:"| @Regex"`
	Expr   string `parser:"| @Expr"`
	Range  *Range `parser:"| @@"`
	Type   string `parser:"| @Ident"`
}

// Range is an interval with optional bounds. Op is ".." (inclusive) or
// "..." (end-exclusive).
type Range struct {
	Pos lexer.Position

	From *Bound `parser:"@@?"`
	Op   string `parser:"@RangeOp"`
	To   *Bound `parser:"@@?"`
}

// Bound is a numeric or string range bound.
type Bound struct {
	Float  *float64 `parser:"  @Float"`
	Int    *int64   `parser:"| @Int"`
	String *string  `parser:"| @String"`
}

// Exclusive reports whether the range excludes its end.
func (r *Range) Exclusive() bool {
	return r.Op == "..."
}

// Value returns the bound as a Go value, nil for a missing bound.
func (b *Bound) Value() any {
	switch {
	case b == nil:
		return nil
	case b.Float != nil:
		return *b.Float
	case b.Int != nil:
		return int(*b.Int)
	case b.String != nil:
		return *b.String
	}
	return nil
}
