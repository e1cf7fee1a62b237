package ast

import "github.com/alecthomas/participle/v2/lexer"

// Lexer defines the token rules for signature declarations.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `#[^\n]*`, Action: nil},
		{Name: "Whitespace", Pattern: `\s+`, Action: nil},
		{Name: "Expr", Pattern: "`[^`]*`", Action: nil},
		{Name: "Regex", Pattern: `/(?:\\.|[^/\\\n])+/`, Action: nil},
		{Name: "Arrow", Pattern: `->`, Action: nil},
		{Name: "RangeOp", Pattern: `\.\.\.?`, Action: nil},
		{Name: "Float", Pattern: `[-+]?\d+\.\d+`, Action: nil},
		{Name: "Int", Pattern: `[-+]?\d+`, Action: nil},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`, Action: nil},
		{Name: "Symbol", Pattern: `:[a-zA-Z_][a-zA-Z0-9_]*[?!]?`, Action: nil},
		{Name: "Keyword", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*:`, Action: nil},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`, Action: nil},
		{Name: "Punct", Pattern: `[(),|]`, Action: nil},
	},
})
