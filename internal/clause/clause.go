// Package clause splits composite shell command strings into their clauses.
// Splitting is quote aware: separators inside single or double quoted spans
// stay part of the surrounding clause, so `echo "a && b"` remains one clause.
package clause

import (
	"strings"

	"github.com/viant/parsly"
)

// Split breaks a command on both `&&` and `;` separators. Used by the
// interactivity guard, which has to inspect every clause of a composite
// command.
func Split(command string) []string {
	return split(command, true)
}

// SplitAnd breaks a command on `&&` only. Used by completion polling and by
// the remote session, which sends each `&&` clause as its own round trip.
func SplitAnd(command string) []string {
	return split(command, false)
}

func split(command string, semicolons bool) []string {
	var clauses []string
	var current strings.Builder

	cursor := parsly.NewCursor("", []byte(command), 0)
	for cursor.Pos < cursor.InputSize {
		matched := cursor.MatchAny(andToken, semicolonToken, singleQuotedToken, doubleQuotedToken, textToken)
		switch matched.Code {
		case andToken.Code:
			clauses = append(clauses, current.String())
			current.Reset()
		case semicolonToken.Code:
			if semicolons {
				clauses = append(clauses, current.String())
				current.Reset()
			} else {
				current.WriteByte(';')
			}
		case singleQuotedToken.Code, doubleQuotedToken.Code, textToken.Code:
			current.WriteString(matched.Text(cursor))
		default:
			// Unmatchable byte, consume it verbatim.
			current.WriteByte(cursor.Input[cursor.Pos])
			cursor.Pos++
		}
	}
	return append(clauses, current.String())
}

// FirstToken returns the first whitespace delimited token of a clause, or an
// empty string for a blank clause.
func FirstToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
