package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/effectus/sig/compiler"
	"github.com/effectus/sig/lint"
)

func splitCommaList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func issueFromError(file string, err error) lint.Issue {
	return lint.Issue{
		File:     file,
		Pos:      positionFromError(err),
		Severity: lint.SeverityError,
		Code:     lint.CodeParseError,
		Message:  err.Error(),
	}
}

func positionFromError(err error) lexer.Position {
	var cerr *compiler.Error
	if errors.As(err, &cerr) {
		return cerr.Pos
	}
	return lexer.Position{}
}

func formatIssuesText(issues []lint.Issue) string {
	sorted := append([]lint.Issue{}, issues...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].File != sorted[j].File {
			return sorted[i].File < sorted[j].File
		}
		return sorted[i].Pos.Line < sorted[j].Pos.Line
	})

	lines := make([]string, 0, len(sorted))
	for _, issue := range sorted {
		line := issue.Pos.Line
		col := issue.Pos.Column
		if line <= 0 {
			line = 1
		}
		if col <= 0 {
			col = 1
		}
		lines = append(lines, fmt.Sprintf("%s:%d:%d %s [%s] %s", issue.File, line, col, issue.Severity, issue.Code, issue.Message))
	}

	return strings.Join(lines, "\n")
}
