package adapter

import (
	"strings"

	"github.com/leapstack-labs/querydeck/pkg/core"
)

// Bound is a statement rewritten for a driver's placeholder syntax.
type Bound struct {
	SQL  string
	Args []any
	// Unbound lists placeholder names that had no supplied value. Their
	// text is left in SQL unchanged.
	Unbound []string
}

// Bind rewrites colon-prefixed named placeholders (":name") in stmt into
// the positional syntax of d and collects arguments from params.
//
// Quoted strings, quoted identifiers, comments, and the "::" cast operator
// are copied through untouched. Inside single-quoted strings a backslash
// escapes the next character only when d.BackslashEscapes() is true.
// Supplied values are always passed as driver arguments and never spliced
// into SQL text. Parameters that appear in params but not in stmt are
// ignored.
func Bind(stmt string, params core.Params, d SQLDialect) Bound {
	var (
		out     strings.Builder
		b       Bound
		indexes = map[string]int{}
		seen    = map[string]bool{}
	)
	out.Grow(len(stmt))
	style := d.Placeholder()

	scanPlaceholders(stmt, d.BackslashEscapes(), func(text string, name string) {
		if name == "" {
			out.WriteString(text)
			return
		}
		val, ok := params[name]
		if !ok {
			out.WriteString(text)
			if !seen[name] {
				seen[name] = true
				b.Unbound = append(b.Unbound, name)
			}
			return
		}
		if style == PlaceholderDollar {
			idx, ok := indexes[name]
			if !ok {
				b.Args = append(b.Args, val)
				idx = len(b.Args)
				indexes[name] = idx
			}
			out.WriteString(style.Format(idx))
			return
		}
		b.Args = append(b.Args, val)
		out.WriteString(style.Format(len(b.Args)))
	})

	b.SQL = out.String()
	return b
}

// PlaceholderNames returns the distinct placeholder names in stmt in order
// of first appearance. String literals follow standard SQL quoting, where
// only a doubled quote escapes.
func PlaceholderNames(stmt string) []string {
	var names []string
	seen := map[string]bool{}
	scanPlaceholders(stmt, false, func(_ string, name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	})
	return names
}

// scanPlaceholders walks stmt and calls emit for each segment. Placeholder
// segments carry their name; every other segment has an empty name.
func scanPlaceholders(stmt string, backslash bool, emit func(text, name string)) {
	start := 0
	flush := func(end int) {
		if end > start {
			emit(stmt[start:end], "")
		}
		start = end
	}

	for i := 0; i < len(stmt); {
		c := stmt[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(stmt, i, c, backslash && c == '\'')
		case c == '-' && i+1 < len(stmt) && stmt[i+1] == '-':
			i = skipUntil(stmt, i+2, "\n")
		case c == '/' && i+1 < len(stmt) && stmt[i+1] == '*':
			i = skipUntil(stmt, i+2, "*/")
		case c == ':' && i+1 < len(stmt) && stmt[i+1] == ':':
			i += 2
		case c == ':' && i+1 < len(stmt) && isIdentStart(stmt[i+1]) && (i == 0 || !isIdentPart(stmt[i-1])):
			flush(i)
			j := i + 2
			for j < len(stmt) && isIdentPart(stmt[j]) {
				j++
			}
			emit(stmt[i:j], stmt[i+1:j])
			start = j
			i = j
		default:
			i++
		}
	}
	flush(len(stmt))
}

// skipQuoted returns the index just past the quoted run opened at i.
// A doubled quote character is an escape, and so is a backslash when
// backslash is set.
func skipQuoted(s string, i int, q byte, backslash bool) int {
	for j := i + 1; j < len(s); j++ {
		if backslash && s[j] == '\\' {
			j++
			continue
		}
		if s[j] == q {
			if j+1 < len(s) && s[j+1] == q {
				j++
				continue
			}
			return j + 1
		}
	}
	return len(s)
}

func skipUntil(s string, i int, end string) int {
	if k := strings.Index(s[i:], end); k >= 0 {
		return i + k + len(end)
	}
	return len(s)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
