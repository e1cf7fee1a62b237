package expect

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Expr compiles an expr-lang expression into a predicate. The checked value
// is bound to the variable "value". Evaluation errors count as a mismatch.
func Expr(source string) (Predicate, error) {
	program, err := compileExpr(source)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{
		Name: "`" + source + "`",
		Fn: func(value any) bool {
			out, err := expr.Run(program, map[string]any{"value": value})
			if err != nil {
				return false
			}
			return Truthy(out)
		},
	}, nil
}

// MustExpr is Expr for expressions known to compile.
func MustExpr(source string) Predicate {
	p, err := Expr(source)
	if err != nil {
		panic(err)
	}
	return p
}

func compileExpr(source string) (*vm.Program, error) {
	program, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("failed to compile predicate %q: %w", source, err)
	}
	return program, nil
}
