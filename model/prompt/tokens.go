package prompt

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes for the definition shorthand parser.
const (
	whitespaceCode = iota
	identifierCode
	openSquareBracketCode
	closeSquareBracketCode
	openParenCode
	closeParenCode
	typeNameCode
	defaultValueCode
)

var (
	whitespaceToken         = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	identifierToken         = parsly.NewToken(identifierCode, "Identifier", &identifierMatcher{})
	openSquareBracketToken  = parsly.NewToken(openSquareBracketCode, "[", matcher.NewByte('['))
	closeSquareBracketToken = parsly.NewToken(closeSquareBracketCode, "]", matcher.NewByte(']'))
	openParenToken          = parsly.NewToken(openParenCode, "(", matcher.NewByte('('))
	closeParenToken         = parsly.NewToken(closeParenCode, ")", matcher.NewByte(')'))
	typeNameToken           = parsly.NewToken(typeNameCode, "TypeName", &typeNameMatcher{})
	defaultValueToken       = parsly.NewToken(defaultValueCode, "DefaultValue", &defaultValueMatcher{})
)

// identifierMatcher matches parameter names: a letter or underscore followed
// by letters, digits or underscores.
type identifierMatcher struct{}

func (m *identifierMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	if !isLetter(input[pos]) && input[pos] != '_' {
		return 0
	}
	matched := 1
	for i := pos + 1; i < size; i++ {
		if isLetter(input[i]) || isDigit(input[i]) || input[i] == '_' {
			matched++
			continue
		}
		break
	}
	return matched
}

// typeNameMatcher captures everything up to the closing square bracket,
// tolerating nested brackets for slice and map modifiers.
type typeNameMatcher struct{}

func (m *typeNameMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	size := cursor.InputSize
	depth := 0
	matched := 0
	for i := cursor.Pos; i < size; i++ {
		if input[i] == '[' {
			depth++
		}
		if input[i] == ']' {
			if depth == 0 {
				break
			}
			depth--
		}
		matched++
	}
	return matched
}

// defaultValueMatcher captures everything up to the closing parenthesis.
type defaultValueMatcher struct{}

func (m *defaultValueMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	size := cursor.InputSize
	matched := 0
	for i := cursor.Pos; i < size; i++ {
		if input[i] == ')' {
			break
		}
		matched++
	}
	return matched
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
