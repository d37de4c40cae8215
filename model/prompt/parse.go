package prompt

import (
	"strings"

	"github.com/viant/parsly"
)

// ParseDefinition parses a parameter definition shorthand in the format:
// name[type](default). Both the [type] and (default) segments are optional,
// "choice[string](yes)" and "choice" are both valid.
func ParseDefinition(input []byte) (*Definition, error) {
	cursor := parsly.NewCursor("", input, 0)
	definition := &Definition{}

	matched := cursor.MatchAfterOptional(whitespaceToken, identifierToken)
	if matched.Code != identifierToken.Code {
		return nil, cursor.NewError(identifierToken)
	}
	definition.Name = matched.Text(cursor)

	matched = cursor.MatchOne(openSquareBracketToken)
	if matched.Code == openSquareBracketToken.Code {
		matched = cursor.MatchOne(typeNameToken)
		if matched.Code != typeNameToken.Code {
			return nil, cursor.NewError(typeNameToken)
		}
		definition.DataType = strings.TrimSpace(matched.Text(cursor))
		matched = cursor.MatchOne(closeSquareBracketToken)
		if matched.Code != closeSquareBracketToken.Code {
			return nil, cursor.NewError(closeSquareBracketToken)
		}
	}

	matched = cursor.MatchAfterOptional(whitespaceToken, openParenToken)
	if matched.Code == openParenToken.Code {
		matched = cursor.MatchOne(defaultValueToken)
		if matched.Code == defaultValueToken.Code {
			definition.Default = matched.Text(cursor)
		}
		matched = cursor.MatchOne(closeParenToken)
		if matched.Code != closeParenToken.Code {
			return nil, cursor.NewError(closeParenToken)
		}
	}
	return definition, nil
}

// ParseDefinitions parses a comma-free list of shorthand declarations, one
// per input.
func ParseDefinitions(inputs ...string) ([]*Definition, error) {
	ret := make([]*Definition, 0, len(inputs))
	for _, input := range inputs {
		definition, err := ParseDefinition([]byte(input))
		if err != nil {
			return nil, err
		}
		ret = append(ret, definition)
	}
	return ret, nil
}
