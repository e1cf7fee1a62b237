package ast

import (
	"strconv"
	"strings"
)

func unquoteString(value string) string {
	if value == "" {
		return value
	}
	unquoted, err := strconv.Unquote(value)
	if err != nil {
		return value
	}
	return unquoted
}

// PostProcess strips token delimiters from every node.
func (s *Signature) PostProcess() {
	if s == nil {
		return
	}
	for _, p := range s.Params {
		p.PostProcess()
	}
	s.Result.PostProcess()
}

// PostProcess drops the colon of a keyword name.
func (p *Param) PostProcess() {
	if p == nil {
		return
	}
	p.Keyword = strings.TrimSuffix(p.Keyword, ":")
	p.Value.PostProcess()
}

// PostProcess normalizes each term.
func (a *Alternation) PostProcess() {
	if a == nil {
		return
	}
	for _, t := range a.Terms {
		t.PostProcess()
	}
}

// PostProcess strips the symbol colon, regex slashes and expression
// backticks, and unquotes string bounds.
func (t *Term) PostProcess() {
	if t == nil {
		return
	}
	t.Symbol = strings.TrimPrefix(t.Symbol, ":")
	if len(t.Regex) >= 2 {
		t.Regex = strings.ReplaceAll(t.Regex[1:len(t.Regex)-1], `\/`, `/`)
	}
	t.Expr = strings.Trim(t.Expr, "`")
	if t.Range != nil {
		for _, b := range []*Bound{t.Range.From, t.Range.To} {
			if b != nil && b.String != nil {
				value := unquoteString(*b.String)
				b.String = &value
			}
		}
	}
}
