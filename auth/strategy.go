package auth

import "strings"

// Comparer decides whether two identifiers refer to the same identity.
type Comparer interface {
	Equal(a, b string) bool
}

// CaseSensitive compares identifiers byte for byte.
var CaseSensitive Comparer = caseSensitive{}

// CaseInsensitive folds case before comparing. Most security realms default
// to case-insensitive user ids.
var CaseInsensitive Comparer = caseInsensitive{}

type caseSensitive struct{}

func (caseSensitive) Equal(a, b string) bool { return a == b }

type caseInsensitive struct{}

func (caseInsensitive) Equal(a, b string) bool { return strings.EqualFold(a, b) }

// Strategy carries the deployment's name comparison policy, configured
// separately for user names and group names.
type Strategy struct {
	User  Comparer
	Group Comparer
}

// DefaultStrategy returns the case-insensitive policy for both users and
// groups.
func DefaultStrategy() Strategy {
	return Strategy{User: CaseInsensitive, Group: CaseInsensitive}
}

// MemberOf reports whether id matches any of the entries using the supplied
// comparer. Entries are trimmed before comparison.
func MemberOf(id string, entries []string, comparer Comparer) bool {
	if comparer == nil {
		comparer = CaseInsensitive
	}
	for _, entry := range entries {
		if comparer.Equal(id, strings.TrimSpace(entry)) {
			return true
		}
	}
	return false
}
