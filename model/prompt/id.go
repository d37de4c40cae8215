package prompt

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// ErrUnsafeID indicates an identifier that is not safe to embed in a URL path
// segment.
var ErrUnsafeID = errors.New("prompt: id is required to be URL safe")

// AllowUnsafeIDs is a deployment-level escape hatch that disables id safety
// validation for installations that stored unsafe ids before validation was
// introduced. Set once at startup, never at runtime.
var AllowUnsafeIDs = false

// The id becomes a URL path segment and is later echoed into generated links
// and forms, so percent encoding, traversal sequences and HTML/JS delimiters
// are all rejected. Allowed: RFC 3986 pchar minus pct-encoded, "&", "'" and
// ";".
var safeID = regexp.MustCompile(`^[a-zA-Z0-9._~!$()*+,:@=-]+$`)

const permittedCharacters = "the id is limited to the characters a-z A-Z, the digits 0-9 and additionally ':' '@' '=' '+' '$' ',' '-' '_' '.' '!' '~' '*' '(' ')'"

// DeriveID computes a stable identifier from the prompt message: the hex
// content digest of the message with its first character capitalized. The
// lowercase range of first characters is reserved for sibling tokens in the
// same URL space.
func DeriveID(message string) string {
	digest := md5.Sum([]byte(message))
	return Capitalize(hex.EncodeToString(digest[:]))
}

// Capitalize upper-cases the first character of id when it is a lowercase
// Latin letter, any other first character is left untouched.
func Capitalize(id string) string {
	if id == "" {
		return id
	}
	if ch := id[0]; 'a' <= ch && ch <= 'z' {
		return string(ch-'a'+'A') + id[1:]
	}
	return id
}

// ValidateID reports whether id is safe to use as a URL path segment. An
// empty id is valid, it means the id will be derived from the message.
func ValidateID(id string) error {
	if id == "" {
		return nil
	}
	if id == "." || id == ".." {
		return fmt.Errorf("%w: %s", ErrUnsafeID, permittedCharacters)
	}
	if !safeID.MatchString(id) {
		return fmt.Errorf("%w: %s", ErrUnsafeID, permittedCharacters)
	}
	return nil
}

// checkSafeID applies ValidateID honouring the AllowUnsafeIDs escape hatch.
func checkSafeID(id string) error {
	if AllowUnsafeIDs {
		return nil
	}
	return ValidateID(id)
}
