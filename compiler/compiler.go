// Package compiler turns textual signature declarations into expectations
// ready to install.
package compiler

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/alecthomas/participle/v2"
	"go.uber.org/multierr"

	"github.com/effectus/sig/ast"
	"github.com/effectus/sig/runtime"
	"github.com/effectus/sig/schema/expect"
	"github.com/effectus/sig/schema/signature"
	"github.com/effectus/sig/schema/types"
)

// Resolver finds the class a type name refers to.
type Resolver interface {
	ResolveClass(name string) (expect.Class, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (expect.Class, bool)

// ResolveClass calls f.
func (f ResolverFunc) ResolveClass(name string) (expect.Class, bool) { return f(name) }

// TypeResolver resolves names through a type registry.
func TypeResolver(r *types.Registry) Resolver {
	return ResolverFunc(func(name string) (expect.Class, bool) {
		t, ok := r.Lookup(name)
		if !ok {
			return nil, false
		}
		return t, true
	})
}

// ClassResolver resolves names through an object model class registry.
func ClassResolver(r *runtime.Registry) Resolver {
	return ResolverFunc(func(name string) (expect.Class, bool) {
		c, ok := r.Lookup(name)
		if !ok {
			return nil, false
		}
		return c, true
	})
}

// Declaration is a compiled signature in the shape Installer.Define takes.
type Declaration struct {
	Source string
	Args   any
	Result any
}

// Compiler parses and compiles declarations. It is safe for concurrent use.
type Compiler struct {
	parser    *participle.Parser[ast.Signature]
	resolvers []Resolver
}

// NewCompiler creates a compiler resolving type names through resolvers in
// order, then through the built-in classes.
func NewCompiler(resolvers ...Resolver) *Compiler {
	parser, err := participle.Build[ast.Signature](
		participle.Lexer(ast.Lexer),
		participle.UseLookahead(3),
		participle.Elide("Whitespace", "Comment"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create parser: %w", err))
	}

	all := append([]Resolver(nil), resolvers...)
	all = append(all, TypeResolver(types.NewRegistry()))
	return &Compiler{parser: parser, resolvers: all}
}

// Parse parses a declaration.
func (c *Compiler) Parse(filename, src string) (*ast.Signature, error) {
	sig, err := c.parser.ParseString(filename, src)
	if err != nil {
		cerr := &Error{Kind: KindSyntax, Message: err.Error(), Err: err}
		var perr participle.Error
		if errors.As(err, &perr) {
			cerr.Pos = perr.Position()
			cerr.Message = perr.Message()
		}
		return nil, cerr
	}
	sig.PostProcess()
	return sig, nil
}

// Compile parses and compiles a declaration.
func (c *Compiler) Compile(src string) (*Declaration, error) {
	sig, err := c.Parse("", src)
	if err != nil {
		return nil, err
	}
	decl, err := c.CompileAST(sig)
	if err != nil {
		return nil, err
	}
	decl.Source = src
	return decl, nil
}

// CompileAST compiles a parsed declaration. Every problem is reported; the
// returned error combines one *Error per problem.
func (c *Compiler) CompileAST(sig *ast.Signature) (*Declaration, error) {
	var errs error
	var args []any
	var keywords signature.Keywords

	for _, p := range sig.Params {
		e, err := c.alternation(p.Value)
		errs = multierr.Append(errs, err)
		if p.Keyword == "" {
			args = append(args, e)
			continue
		}
		if keywords == nil {
			keywords = signature.Keywords{}
		}
		if _, dup := keywords[p.Keyword]; dup {
			errs = multierr.Append(errs, &Error{
				Pos:     p.Pos,
				Kind:    KindDuplicateKeyword,
				Message: fmt.Sprintf("keyword %s declared twice", p.Keyword),
			})
			continue
		}
		keywords[p.Keyword] = e
	}
	if keywords != nil {
		args = append(args, keywords)
	}

	decl := &Declaration{}
	if len(args) > 0 {
		decl.Args = args
	}
	if sig.Result != nil {
		result, err := c.alternation(sig.Result)
		errs = multierr.Append(errs, err)
		decl.Result = result
	}
	if errs != nil {
		return nil, errs
	}
	return decl, nil
}

func (c *Compiler) alternation(a *ast.Alternation) (expect.Expectation, error) {
	var errs error
	alts := make(expect.AnyOf, 0, len(a.Terms))
	for _, t := range a.Terms {
		e, err := c.term(t)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		alts = append(alts, e)
	}
	if errs != nil {
		return nil, errs
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return alts, nil
}

func (c *Compiler) term(t *ast.Term) (expect.Expectation, error) {
	switch {
	case t.Nil:
		return expect.Unconstrained, nil
	case t.True:
		return expect.True, nil
	case t.False:
		return expect.False, nil
	case t.Symbol != "":
		return expect.Capability(t.Symbol), nil
	case t.Regex != "":
		re, err := regexp.Compile(t.Regex)
		if err != nil {
			return nil, &Error{Pos: t.Pos, Kind: KindInvalidPattern, Message: fmt.Sprintf("invalid pattern /%s/: %v", t.Regex, err), Err: err}
		}
		return expect.Pattern{Regexp: re}, nil
	case t.Expr != "":
		p, err := expect.Expr(t.Expr)
		if err != nil {
			return nil, &Error{Pos: t.Pos, Kind: KindInvalidExpr, Message: err.Error(), Err: err}
		}
		return p, nil
	case t.Range != nil:
		return expect.Range{
			Min:        t.Range.From.Value(),
			Max:        t.Range.To.Value(),
			ExcludeEnd: t.Range.Exclusive(),
		}, nil
	case t.Type != "":
		class, ok := c.Resolve(t.Type)
		if !ok {
			return nil, &Error{Pos: t.Pos, Kind: KindUnknownType, Message: fmt.Sprintf("unknown type %s", t.Type)}
		}
		return expect.Type{Class: class}, nil
	}
	return nil, &Error{Pos: t.Pos, Kind: KindEmptyTerm, Message: "empty expectation"}
}

// Resolve finds the class a type name refers to.
func (c *Compiler) Resolve(name string) (expect.Class, bool) {
	for _, r := range c.resolvers {
		if class, ok := r.ResolveClass(name); ok {
			return class, true
		}
	}
	return nil, false
}
