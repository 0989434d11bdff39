package clause

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	andCode = iota
	semicolonCode
	singleQuotedCode
	doubleQuotedCode
	textCode
)

// Token definitions
var (
	andToken          = parsly.NewToken(andCode, "&&", newAndMatcher())
	semicolonToken    = parsly.NewToken(semicolonCode, ";", matcher.NewByte(';'))
	singleQuotedToken = parsly.NewToken(singleQuotedCode, "SingleQuoted", newQuotedMatcher('\'', false))
	doubleQuotedToken = parsly.NewToken(doubleQuotedCode, "DoubleQuoted", newQuotedMatcher('"', true))
	textToken         = parsly.NewToken(textCode, "Text", newTextMatcher())
)

// Custom matchers
func newAndMatcher() parsly.Matcher {
	return &andMatcher{}
}

func newQuotedMatcher(quote byte, escapable bool) parsly.Matcher {
	return &quotedMatcher{quote: quote, escapable: escapable}
}

func newTextMatcher() parsly.Matcher {
	return &textMatcher{}
}

// andMatcher matches the two byte command separator
type andMatcher struct{}

func (m *andMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos+1 >= cursor.InputSize {
		return 0
	}
	if input[pos] == '&' && input[pos+1] == '&' {
		return 2
	}
	return 0
}

// quotedMatcher matches a quoted span including both quote characters; an
// unterminated quote consumes the rest of the input, mirroring how a shell
// would treat the clause as a single unfinished word.
type quotedMatcher struct {
	quote     byte
	escapable bool
}

func (m *quotedMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size || input[pos] != m.quote {
		return 0
	}

	matched := 1
	for i := pos + 1; i < size; i++ {
		matched++
		if m.escapable && input[i] == '\\' && i+1 < size {
			matched++
			i++
			continue
		}
		if input[i] == m.quote {
			return matched
		}
	}
	return matched
}

// textMatcher consumes a run of bytes up to the next separator or quote. A
// lone ampersand is ordinary text; only a double ampersand separates.
type textMatcher struct{}

func (m *textMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	matched := 0
	for i := pos; i < size; i++ {
		c := input[i]
		if c == ';' || c == '\'' || c == '"' {
			break
		}
		if c == '&' && i+1 < size && input[i+1] == '&' {
			break
		}
		matched++
	}
	return matched
}
