// Package lint checks signature manifests without installing anything.
package lint

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/expr-lang/expr"
	exprast "github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"go.uber.org/multierr"

	"github.com/effectus/sig/ast"
	"github.com/effectus/sig/compiler"
	"github.com/effectus/sig/loader"
	"github.com/effectus/sig/runtime"
)

const (
	SeverityWarning = "warning"
	SeverityError   = "error"

	CodeParseError             = "parse-error"
	CodeUnknownType            = "unknown-type"
	CodeUnknownClass           = "unknown-class"
	CodeUnknownMethod          = "unknown-method"
	CodeDuplicateSignature     = "duplicate-signature"
	CodeDuplicateKeyword       = "duplicate-keyword"
	CodeUnconstrainedSignature = "unconstrained-signature"
	CodeInvalidPattern         = "invalid-pattern"
	CodeInvalidExpression      = "invalid-expression"
	CodeUnsafeExpression       = "unsafe-expression"
	CodeConstantExpression     = "constant-expression"
)

// UnsafeMode controls how unsafe expression usage is reported.
type UnsafeMode string

const (
	UnsafeIgnore UnsafeMode = "ignore"
	UnsafeWarn   UnsafeMode = "warn"
	UnsafeError  UnsafeMode = "error"
)

// LintOptions configures lint behavior.
type LintOptions struct {
	UnsafeMode UnsafeMode

	// SkipTargets disables the class and method existence checks, for
	// linting manifests away from the program that defines the classes
	SkipTargets bool
}

// DefaultOptions returns the default lint options.
func DefaultOptions() LintOptions {
	return LintOptions{UnsafeMode: UnsafeWarn}
}

// ParseUnsafeMode parses a string into UnsafeMode.
func ParseUnsafeMode(raw string) (UnsafeMode, error) {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	switch trimmed {
	case "", "warn", "warning":
		return UnsafeWarn, nil
	case "error", "err":
		return UnsafeError, nil
	case "ignore", "off", "none":
		return UnsafeIgnore, nil
	default:
		return UnsafeWarn, fmt.Errorf("unknown unsafe mode: %s", raw)
	}
}

// Issue represents a linter finding.
type Issue struct {
	File     string
	Pos      lexer.Position
	Severity string
	Code     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s:%d: %s: [%s] %s", i.File, i.Pos.Line, i.Severity, i.Code, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// LintManifest checks every declaration of m against the classes of the
// registry. A nil compiler resolves type names through classes and the
// built-in classes.
func LintManifest(m *loader.Manifest, classes *runtime.Registry, c *compiler.Compiler, options LintOptions) []Issue {
	if m == nil {
		return nil
	}
	if classes == nil {
		classes = runtime.NewRegistry()
	}
	if c == nil {
		c = compiler.NewCompiler(compiler.ClassResolver(classes))
	}

	issues := make([]Issue, 0)
	mode := normalizeUnsafeMode(options.UnsafeMode)
	seen := make(map[string]int)

	for _, d := range m.Declarations {
		pos := lexer.Position{Filename: m.Path, Line: d.Line, Column: 1}

		if !options.SkipTargets {
			issues = append(issues, lintTarget(m.Path, pos, d, classes)...)
		}
		if first, dup := seen[d.Target()]; dup {
			issues = append(issues, Issue{
				File:     m.Path,
				Pos:      pos,
				Severity: SeverityWarning,
				Code:     CodeDuplicateSignature,
				Message:  fmt.Sprintf("%s already declared at line %d; the later declaration wins", d.Target(), first),
			})
		} else {
			seen[d.Target()] = d.Line
		}

		sig, err := c.Parse(m.Path, d.Signature)
		if err != nil {
			issues = append(issues, compileIssues(m.Path, pos, d, err)...)
			continue
		}
		if _, err := c.CompileAST(sig); err != nil {
			issues = append(issues, compileIssues(m.Path, pos, d, err)...)
		}
		issues = append(issues, lintUnconstrained(m.Path, pos, d, sig)...)
		for _, e := range expressions(sig) {
			issues = append(issues, lintUnsafeExpression(m.Path, pos, d.Target(), e, mode)...)
			issues = append(issues, lintConstantExpression(m.Path, pos, d.Target(), e)...)
		}
	}

	return issues
}

func lintTarget(path string, pos lexer.Position, d loader.Declaration, classes *runtime.Registry) []Issue {
	if d.Class == "" {
		return []Issue{{File: path, Pos: pos, Severity: SeverityError, Code: CodeUnknownClass, Message: "declaration has no class"}}
	}
	if d.Method == "" {
		return []Issue{{File: path, Pos: pos, Severity: SeverityError, Code: CodeUnknownMethod, Message: fmt.Sprintf("declaration for %s has no method", d.Class)}}
	}

	target, ok := classes.Lookup(d.Class)
	if !ok {
		return []Issue{{File: path, Pos: pos, Severity: SeverityError, Code: CodeUnknownClass, Message: fmt.Sprintf("class %q is not registered", d.Class)}}
	}
	if d.Static {
		target = target.Singleton()
	}
	if _, ok := target.MethodVisibility(d.Method); !ok {
		return []Issue{{File: path, Pos: pos, Severity: SeverityError, Code: CodeUnknownMethod, Message: fmt.Sprintf("%s is not defined", d.Target())}}
	}
	return nil
}

func compileIssues(path string, pos lexer.Position, d loader.Declaration, err error) []Issue {
	issues := make([]Issue, 0)
	for _, e := range multierr.Errors(err) {
		var cerr *compiler.Error
		if !errors.As(e, &cerr) {
			issues = append(issues, Issue{File: path, Pos: pos, Severity: SeverityError, Code: CodeParseError, Message: e.Error()})
			continue
		}
		issues = append(issues, Issue{
			File:     path,
			Pos:      pos,
			Severity: SeverityError,
			Code:     codeForKind(cerr.Kind),
			Message:  fmt.Sprintf("%s: signature %q: %s", d.Target(), d.Signature, cerr.Error()),
		})
	}
	return issues
}

func codeForKind(kind compiler.ErrorKind) string {
	switch kind {
	case compiler.KindUnknownType:
		return CodeUnknownType
	case compiler.KindInvalidPattern:
		return CodeInvalidPattern
	case compiler.KindInvalidExpr:
		return CodeInvalidExpression
	case compiler.KindDuplicateKeyword:
		return CodeDuplicateKeyword
	default:
		return CodeParseError
	}
}

func lintUnconstrained(path string, pos lexer.Position, d loader.Declaration, sig *ast.Signature) []Issue {
	for _, p := range sig.Params {
		if !unconstrained(p.Value) {
			return nil
		}
	}
	if sig.Result != nil && !unconstrained(sig.Result) {
		return nil
	}

	return []Issue{
		{
			File:     path,
			Pos:      pos,
			Severity: SeverityWarning,
			Code:     CodeUnconstrainedSignature,
			Message:  fmt.Sprintf("signature for %s checks nothing", d.Target()),
		},
	}
}

func unconstrained(a *ast.Alternation) bool {
	for _, t := range a.Terms {
		if t.Nil {
			return true
		}
	}
	return false
}

func expressions(sig *ast.Signature) []string {
	var out []string
	collect := func(a *ast.Alternation) {
		if a == nil {
			return
		}
		for _, t := range a.Terms {
			if t.Expr != "" {
				out = append(out, t.Expr)
			}
		}
	}
	for _, p := range sig.Params {
		collect(p.Value)
	}
	collect(sig.Result)
	return out
}

func lintUnsafeExpression(path string, pos lexer.Position, target, expression string, mode UnsafeMode) []Issue {
	if mode == UnsafeIgnore {
		return nil
	}

	exprText := strings.TrimSpace(expression)
	if exprText == "" {
		return nil
	}

	usage := findUnsafeOps(exprText, unsafeFunctionNames())
	if len(usage) == 0 {
		return nil
	}

	severity := SeverityWarning
	if mode == UnsafeError {
		severity = SeverityError
	}

	message := fmt.Sprintf("predicate `%s` of %s uses unsafe expression operations: %s", exprText, target, strings.Join(usage, ", "))
	return []Issue{
		{
			File:     path,
			Pos:      pos,
			Severity: severity,
			Code:     CodeUnsafeExpression,
			Message:  message,
		},
	}
}

func lintConstantExpression(path string, pos lexer.Position, target, expression string) []Issue {
	value, ok := constantBool(strings.TrimSpace(expression))
	if !ok {
		return nil
	}

	outcome := "never matches"
	if value {
		outcome = "always matches"
	}
	return []Issue{
		{
			File:     path,
			Pos:      pos,
			Severity: SeverityWarning,
			Code:     CodeConstantExpression,
			Message:  fmt.Sprintf("predicate `%s` of %s ignores value and %s", expression, target, outcome),
		},
	}
}

func normalizeUnsafeMode(mode UnsafeMode) UnsafeMode {
	switch strings.ToLower(strings.TrimSpace(string(mode))) {
	case string(UnsafeError):
		return UnsafeError
	case string(UnsafeIgnore):
		return UnsafeIgnore
	default:
		return UnsafeWarn
	}
}

// unsafeFunctionNames lists expr builtins that allocate in proportion to
// their input or decode untrusted text.
func unsafeFunctionNames() map[string]struct{} {
	return map[string]struct{}{
		"repeat":     {},
		"fromJSON":   {},
		"fromBase64": {},
		"split":      {},
	}
}

func findUnsafeOps(expression string, unsafeFuncs map[string]struct{}) []string {
	tree, err := parser.Parse(expression)
	if err != nil {
		return fallbackUnsafeOps(expression, unsafeFuncs)
	}

	seen := make(map[string]struct{})

	var visit func(node exprast.Node)
	visit = func(node exprast.Node) {
		if node == nil {
			return
		}

		switch n := node.(type) {
		case *exprast.BinaryNode:
			if strings.EqualFold(n.Operator, "matches") {
				seen["matches"] = struct{}{}
			}
			visit(n.Left)
			visit(n.Right)
		case *exprast.CallNode:
			if ident, ok := n.Callee.(*exprast.IdentifierNode); ok {
				if _, ok := unsafeFuncs[ident.Value]; ok {
					seen[ident.Value] = struct{}{}
				}
			}
			visit(n.Callee)
			for _, arg := range n.Arguments {
				visit(arg)
			}
		case *exprast.BuiltinNode:
			if _, ok := unsafeFuncs[n.Name]; ok {
				seen[n.Name] = struct{}{}
			}
			for _, arg := range n.Arguments {
				visit(arg)
			}
		case *exprast.MemberNode:
			visit(n.Node)
			visit(n.Property)
		case *exprast.UnaryNode:
			visit(n.Node)
		case *exprast.ChainNode:
			visit(n.Node)
		case *exprast.SliceNode:
			visit(n.Node)
			visit(n.From)
			visit(n.To)
		case *exprast.PredicateNode:
			visit(n.Node)
		case *exprast.ConditionalNode:
			visit(n.Cond)
			visit(n.Exp1)
			visit(n.Exp2)
		case *exprast.ArrayNode:
			for _, child := range n.Nodes {
				visit(child)
			}
		}
	}

	visit(tree.Node)

	results := make([]string, 0, len(seen))
	for op := range seen {
		results = append(results, op)
	}
	sort.Strings(results)
	return results
}

func fallbackUnsafeOps(expression string, unsafeFuncs map[string]struct{}) []string {
	seen := make(map[string]struct{})
	lower := strings.ToLower(expression)
	if strings.Contains(lower, "matches") {
		seen["matches"] = struct{}{}
	}
	for name := range unsafeFuncs {
		if strings.Contains(lower, strings.ToLower(name)+"(") {
			seen[name] = struct{}{}
		}
	}
	results := make([]string, 0, len(seen))
	for op := range seen {
		results = append(results, op)
	}
	sort.Strings(results)
	return results
}

// constantBool evaluates expressions that never look at value.
func constantBool(expression string) (bool, bool) {
	tree, err := parser.Parse(expression)
	if err != nil {
		return false, false
	}

	visitor := &variableVisitor{}
	node := tree.Node
	exprast.Walk(&node, visitor)
	if visitor.hasVariables {
		return false, false
	}

	result, err := expr.Eval(expression, map[string]any{})
	if err != nil {
		return false, false
	}
	value, ok := result.(bool)
	return value, ok
}

type variableVisitor struct {
	hasVariables bool
}

func (v *variableVisitor) Visit(node *exprast.Node) {
	switch (*node).(type) {
	case *exprast.IdentifierNode, *exprast.MemberNode, *exprast.PointerNode, *exprast.VariableDeclaratorNode:
		v.hasVariables = true
	}
}
