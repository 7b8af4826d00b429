package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Matcher decides whether a line contains a section keyword
type Matcher interface {
	Contains(line, keyword string) bool
}

// SubstringMatcher matches keywords anywhere in the line, so "SKILLSET" contains "SKILL".
type SubstringMatcher struct{}

// Contains reports whether keyword occurs in line
func (SubstringMatcher) Contains(line, keyword string) bool {
	return strings.Contains(line, keyword)
}

// TokenMatcher only matches keywords that start and end on a word boundary.
// Keywords that are a prefix of a plural ("Skill" in "Skills") still match.
type TokenMatcher struct{}

// Contains reports whether keyword occurs in line as a whole word
func (TokenMatcher) Contains(line, keyword string) bool {
	if keyword == "" {
		return false
	}
	for off := 0; off < len(line); {
		i := strings.Index(line[off:], keyword)
		if i < 0 {
			return false
		}
		start := off + i
		end := start + len(keyword)
		if boundaryBefore(line, start) && boundaryAfter(line, end) {
			return true
		}
		off = start + 1
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, size := utf8.DecodeRuneInString(s[i:])
	if !isWordRune(r) {
		return true
	}
	// allow a plural suffix
	if r == 's' || r == 'S' {
		j := i + size
		if j >= len(s) {
			return true
		}
		next, _ := utf8.DecodeRuneInString(s[j:])
		return !isWordRune(next)
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// containsAny reports whether any keyword matches line
func containsAny(m Matcher, line string, keywords []string) bool {
	for _, k := range keywords {
		if m.Contains(line, k) {
			return true
		}
	}
	return false
}

// MatcherByName returns the matcher registered under name ("substring" or "token")
func MatcherByName(name string) (Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "substring":
		return SubstringMatcher{}, nil
	case "token":
		return TokenMatcher{}, nil
	default:
		return nil, fmt.Errorf("unknown keyword matching strategy: %q", name)
	}
}
