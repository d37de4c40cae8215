package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveID(t *testing.T) {
	testCases := []struct {
		name    string
		message string
		expect  string
	}{
		{
			name:    "plain message",
			message: "Deploy to production?",
			expect:  "A61b61d2d652c2824ae4d9acb5cb8e5a",
		},
		{
			name:    "empty message",
			message: "",
			expect:  "D41d8cd98f00b204e9800998ecf8427e",
		},
	}
	for _, testCase := range testCases {
		actual := DeriveID(testCase.message)
		assert.Equal(t, testCase.expect, actual, testCase.name)
		// stable across invocations
		assert.Equal(t, actual, DeriveID(testCase.message), testCase.name)
		// first character never lowercase
		first := actual[0]
		assert.False(t, 'a' <= first && first <= 'z', testCase.name)
	}
}

func TestCapitalize(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "", expect: ""},
		{input: "abc", expect: "Abc"},
		{input: "Abc", expect: "Abc"},
		{input: "1abc", expect: "1abc"},
		{input: "_abc", expect: "_abc"},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, Capitalize(testCase.input), testCase.input)
	}
}

func TestValidateID(t *testing.T) {
	testCases := []struct {
		name      string
		id        string
		expectErr bool
	}{
		{name: "empty is derived later", id: "", expectErr: false},
		{name: "alphanumeric", id: "Deploy1", expectErr: false},
		{name: "permitted punctuation", id: "A._~!$()*+,:@=-", expectErr: false},
		{name: "embedded dot", id: "foo.bar", expectErr: false},
		{name: "tilde star underscore", id: "this-is~*_(ok)!", expectErr: false},
		{name: "current directory", id: ".", expectErr: true},
		{name: "parent directory", id: "..", expectErr: true},
		{name: "slash", id: "a/b", expectErr: true},
		{name: "percent encoding", id: "a%2Fb", expectErr: true},
		{name: "space", id: "a b", expectErr: true},
		{name: "html delimiter", id: "a<b>", expectErr: true},
		{name: "quote", id: `a"b`, expectErr: true},
		{name: "question mark", id: "a?b", expectErr: true},
		{name: "hash", id: "a#b", expectErr: true},
		{name: "ampersand", id: "a&b", expectErr: true},
		{name: "apostrophe", id: "a'b", expectErr: true},
	}
	for _, testCase := range testCases {
		err := ValidateID(testCase.id)
		if testCase.expectErr {
			assert.ErrorIs(t, err, ErrUnsafeID, testCase.name)
		} else {
			assert.NoError(t, err, testCase.name)
		}
	}
}

func TestAllowUnsafeIDs(t *testing.T) {
	AllowUnsafeIDs = true
	defer func() { AllowUnsafeIDs = false }()
	_, err := New("message", WithID("a/b"))
	assert.NoError(t, err)
}
