package tomb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/TheMichaelB/tomb/internal/models"
)

// CompileGlob turns a shell style wildcard pattern into an anchored regular
// expression. Supported syntax: "*" (any run of characters, "/" included),
// "?" (one character), "[abc]", "[a-z]", "[!abc]" or "[^abc]", "{a,b}"
// alternation and "\" to escape the next character.
func CompileGlob(pattern string) (*regexp.Regexp, error) {
	invalid := func(reason string) error {
		return models.NewError(models.ErrInvalidPattern, "compile pattern", pattern, fmt.Errorf("%s", reason))
	}

	runes := []rune(pattern)
	var sb strings.Builder
	sb.WriteString(`(?s)^`)

	inClass := false
	braces := 0

	for i := 0; i < len(runes); i++ {
		c := runes[i]

		switch {
		case c == '\\':
			if i+1 >= len(runes) {
				return nil, invalid("trailing backslash")
			}
			i++
			sb.WriteString(regexp.QuoteMeta(string(runes[i])))

		case inClass:
			switch c {
			case ']':
				inClass = false
				sb.WriteByte(']')
			case '[':
				sb.WriteString(`\[`)
			default:
				sb.WriteRune(c)
			}

		case c == '[':
			inClass = true
			sb.WriteByte('[')
			if i+1 < len(runes) && (runes[i+1] == '!' || runes[i+1] == '^') {
				sb.WriteByte('^')
				i++
			}
			// A "]" right after the opening bracket is a literal member.
			if i+1 < len(runes) && runes[i+1] == ']' {
				sb.WriteString(`\]`)
				i++
			}

		case c == '*':
			sb.WriteString(`.*`)

		case c == '?':
			sb.WriteByte('.')

		case c == '{':
			braces++
			sb.WriteString(`(?:`)

		case c == ',' && braces > 0:
			sb.WriteByte('|')

		case c == '}' && braces > 0:
			braces--
			sb.WriteByte(')')

		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	if inClass {
		return nil, invalid("unterminated character class")
	}
	if braces > 0 {
		return nil, invalid("unterminated brace group")
	}

	sb.WriteByte('$')
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, models.NewError(models.ErrInvalidPattern, "compile pattern", pattern, err)
	}
	return re, nil
}
