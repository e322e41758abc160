// Package validation implements the regex and length checks shared by the
// HTTP contract and the WebSocket protocol handler: names, addresses,
// a-records, and metaname tokens.
package validation

import (
	"regexp"
	"strings"
)

var (
	nameForRegistration = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)
	nameForFetch        = regexp.MustCompile(`^(?:xn--)?[a-z0-9_-]{1,64}$`)
	addressRe           = regexp.MustCompile(`^k[a-z0-9]{9}$`)
	aRecordRe           = regexp.MustCompile(`^[^\s.?#].[^\s]*$`)
	metanameRe          = regexp.MustCompile(`^(?:([a-z0-9-_]{1,32})@)?([a-z0-9]{1,64})\.kro$`)
)

// IsNameValidForRegistration reports whether name (after lowercasing)
// matches the registration pattern ^[a-z0-9_-]{1,64}$.
func IsNameValidForRegistration(name string) bool {
	return nameForRegistration.MatchString(strings.ToLower(name))
}

// IsNameValidForFetch reports whether name (after lowercasing) matches the
// looser fetch pattern, which also accepts a punycode "xn--" prefix.
func IsNameValidForFetch(name string) bool {
	return nameForFetch.MatchString(strings.ToLower(name))
}

// IsAddressValid reports whether addr (after lowercasing) matches
// ^k[a-z0-9]{9}$.
func IsAddressValid(addr string) bool {
	return addressRe.MatchString(strings.ToLower(addr))
}

// IsARecordValid reports whether a is a non-empty, <=255 character string
// matching ^[^\s.?#].[^\s]*$. An empty string is considered valid here
// separately by callers that allow clearing the metadata; this function
// only validates non-empty candidates.
func IsARecordValid(a string) bool {
	if a == "" || len(a) > 255 {
		return false
	}
	return aRecordRe.MatchString(a)
}

// MetanameMatch is the parsed result of a `{metaname}@{name}.kro` token.
type MetanameMatch struct {
	Metaname string // empty if the token had no "@metaname" part
	Name     string
}

// ParseMetaname matches s against ^(?:([a-z0-9-_]{1,32})@)?([a-z0-9]{1,64})\.kro$
// (after lowercasing). It returns ok=false for an empty or non-matching
// string, in which case both fields of the zero MetanameMatch are unset.
func ParseMetaname(s string) (MetanameMatch, bool) {
	m := metanameRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return MetanameMatch{}, false
	}
	return MetanameMatch{Metaname: m[1], Name: m[2]}, true
}
