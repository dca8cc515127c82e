package triggers

import "strings"

// Matcher decides whether text mentions any of the keywords.
type Matcher interface {
	Match(text string, keywords []string) bool
}

// SubstringMatcher is a case-insensitive substring matcher.
type SubstringMatcher struct{}

// Match reports whether any keyword occurs in text, ignoring case.
func (SubstringMatcher) Match(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
