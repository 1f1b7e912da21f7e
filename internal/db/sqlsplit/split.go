// Package sqlsplit splits raw SQL text into individually executable
// statements and classifies each as row-returning or not.
//
// The splitter is a single left-to-right scan. Semicolons inside
// single-quoted, double-quoted, or backtick-quoted literals, and inside
// line (--) or block (/* */) comments, never terminate a statement.
package sqlsplit

import "strings"

type scanState int

const (
	stateNone scanState = iota
	stateSingleQuote
	stateDoubleQuote
	stateBacktick
	stateLineComment
	stateBlockComment
)

// Split breaks sql into trimmed statements. Empty statements (consecutive
// semicolons, trailing semicolon) are dropped.
func Split(sql string) []string {
	var (
		stmts []string
		buf   strings.Builder
		state = stateNone
	)

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			stmts = append(stmts, s)
		}
		buf.Reset()
	}

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		var next byte
		if i+1 < len(sql) {
			next = sql[i+1]
		}

		switch state {
		case stateNone:
			switch {
			case c == ';':
				flush()
				continue
			case c == '\'':
				state = stateSingleQuote
			case c == '"':
				state = stateDoubleQuote
			case c == '`':
				state = stateBacktick
			case c == '-' && next == '-':
				state = stateLineComment
			case c == '/' && next == '*':
				state = stateBlockComment
				buf.WriteByte(c)
				buf.WriteByte(next)
				i++
				continue
			}
		case stateSingleQuote:
			if c == '\'' {
				// A doubled quote is a literal quote character, not a
				// terminator.
				if next == '\'' {
					buf.WriteByte(c)
					buf.WriteByte(next)
					i++
					continue
				}
				state = stateNone
			}
		case stateDoubleQuote:
			if c == '"' {
				if next == '"' {
					buf.WriteByte(c)
					buf.WriteByte(next)
					i++
					continue
				}
				state = stateNone
			}
		case stateBacktick:
			if c == '`' {
				state = stateNone
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNone
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNone
				buf.WriteByte(c)
				buf.WriteByte(next)
				i++
				continue
			}
		}

		buf.WriteByte(c)
	}
	flush()

	return stmts
}

// StripLeadingComments removes line and block comments (and surrounding
// whitespace) from the front of stmt, looping until real text remains.
func StripLeadingComments(stmt string) string {
	s := strings.TrimSpace(stmt)
	for {
		switch {
		case strings.HasPrefix(s, "--"):
			nl := strings.IndexByte(s, '\n')
			if nl < 0 {
				return ""
			}
			s = strings.TrimSpace(s[nl+1:])
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s, "*/")
			if end < 0 {
				return ""
			}
			s = strings.TrimSpace(s[end+2:])
		default:
			return s
		}
	}
}

// rowReturningKeywords are the leading keywords that mark a statement as
// producing a result grid. Everything else executes for its side effect and
// reports an affected-row count.
var rowReturningKeywords = []string{
	"SELECT",
	"WITH",
	"VALUES",
	"SHOW",     // MySQL
	"DESCRIBE", // MySQL
	"DESC",     // MySQL
	"EXPLAIN",
	"PRAGMA", // SQLite
}

// IsRowReturning classifies stmt by its leading keyword, after stripping
// leading comments.
func IsRowReturning(stmt string) bool {
	s := StripLeadingComments(stmt)
	if s == "" {
		return false
	}
	upper := strings.ToUpper(s)
	for _, kw := range rowReturningKeywords {
		if strings.HasPrefix(upper, kw) {
			// Keyword must end at a word boundary: "SELECTION" is not
			// "SELECT".
			rest := upper[len(kw):]
			if rest == "" || !isWordChar(rest[0]) {
				return true
			}
		}
	}
	return false
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
